// Package zeromq publishes thruster telemetry and answers config and status
// requests over ZeroMQ.
package zeromq

import (
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/pebbe/zmq4"
)

const (
	replyTimeout = time.Second
	pollInterval = 250 * time.Millisecond
)

// ServiceConfig holds socket addresses. An empty RequestBindAddress disables
// the request socket.
type ServiceConfig struct {
	PublishBindAddress string
	RequestBindAddress string
	SendHighWaterMark  int
	VehicleID          string
}

// replier serves the REP socket. Once serving, its goroutine owns the socket.
type replier struct {
	socket   *zmq4.Socket
	router   *RequestRouter
	logger   customlog.Logger
	endpoint string

	mu      sync.Mutex
	serving bool
	closed  bool
}

func bindReplier(ctx *zmq4.Context, address string, router *RequestRouter, logger customlog.Logger) (*replier, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}
	endpoint, err := bindSocket(socket, address,
		func() error { return socket.SetRcvtimeo(replyTimeout) },
		func() error { return socket.SetSndtimeo(replyTimeout) },
	)
	if err != nil {
		return nil, err
	}
	logger.Infof("Request socket bound on %s", endpoint)
	return &replier{socket: socket, router: router, logger: logger, endpoint: endpoint}, nil
}

// bindSocket applies linger 0 and opts, binds, and returns the resolved
// endpoint. The socket is closed on failure.
func bindSocket(socket *zmq4.Socket, address string, opts ...func() error) (string, error) {
	opts = append([]func() error{func() error { return socket.SetLinger(0) }}, opts...)
	for _, opt := range opts {
		if err := opt(); err != nil {
			socket.Close()
			return "", fmt.Errorf("failed to configure socket for %s: %w", address, err)
		}
	}
	if err := socket.Bind(address); err != nil {
		socket.Close()
		return "", fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	endpoint, err := socket.GetLastEndpoint()
	if err != nil {
		return address, nil
	}
	return endpoint, nil
}

func (r *replier) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serving && !r.closed
}

func (r *replier) start(wg *sync.WaitGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serving || r.closed {
		return
	}
	r.serving = true
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer r.socket.Close()
		r.serve()
	}()
}

func (r *replier) serve() {
	poller := zmq4.NewPoller()
	poller.Add(r.socket, zmq4.POLLIN)

	for r.active() {
		ready, err := poller.Poll(pollInterval)
		if err != nil || len(ready) == 0 {
			if err != nil && r.active() {
				r.logger.Warnf("Request socket poll failed: %v", err)
			}
			continue
		}

		request, err := r.socket.RecvBytes(0)
		if err != nil {
			if r.active() {
				r.logger.Warnf("Request receive failed: %v", err)
			}
			continue
		}

		// A REP socket must answer every request, so failures become ERROR envelopes.
		reply, err := r.router.Route(request)
		if err != nil {
			r.logger.Warnf("Request rejected: %v", err)
			reply = errorEnvelope(err)
		}
		if _, err := r.socket.SendBytes(reply, 0); err != nil && r.active() {
			r.logger.Errorf("Reply send failed: %v", err)
		}
	}
}

func (r *replier) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if !r.serving {
		r.socket.Close()
	}
}

// publisherSocket is the PUB side. zmq sockets are not thread safe, so every
// send holds mu.
type publisherSocket struct {
	mu       sync.Mutex
	socket   *zmq4.Socket
	endpoint string
}

func bindPublisher(ctx *zmq4.Context, address string, hwm int, logger customlog.Logger) (*publisherSocket, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	var opts []func() error
	if hwm > 0 {
		opts = append(opts, func() error { return socket.SetSndhwm(hwm) })
	}
	endpoint, err := bindSocket(socket, address, opts...)
	if err != nil {
		return nil, err
	}
	logger.Infof("Telemetry socket bound on %s", endpoint)
	return &publisherSocket{socket: socket, endpoint: endpoint}, nil
}

func (p *publisherSocket) send(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return ErrServiceClosed
	}
	if _, err := p.socket.SendMessage(topic, payload); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

func (p *publisherSocket) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
	}
}

// ZeroMQService owns the ZeroMQ context, the telemetry PUB socket and the
// optional request REP socket.
type ZeroMQService struct {
	ctx       *zmq4.Context
	pub       *publisherSocket
	rep       *replier
	router    *RequestRouter
	vehicleID string
	logger    customlog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewZeroMQService binds the configured sockets. Publishing starts with Start.
func NewZeroMQService(cfg ServiceConfig, logger customlog.Logger) (*ZeroMQService, error) {
	if cfg.PublishBindAddress == "" {
		return nil, fmt.Errorf("publish bind address cannot be empty")
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &ZeroMQService{
		ctx:       ctx,
		router:    NewRequestRouter(logger),
		vehicleID: cfg.VehicleID,
		logger:    logger,
	}
	if s.pub, err = bindPublisher(ctx, cfg.PublishBindAddress, cfg.SendHighWaterMark, logger); err != nil {
		ctx.Term()
		return nil, err
	}
	if cfg.RequestBindAddress != "" {
		if s.rep, err = bindReplier(ctx, cfg.RequestBindAddress, s.router, logger); err != nil {
			s.pub.close()
			ctx.Term()
			return nil, err
		}
	}
	return s, nil
}

// HandleRequest registers h for requests of msgType.
func (s *ZeroMQService) HandleRequest(msgType string, h RequestHandler) {
	s.router.Handle(msgType, h)
}

// Start enables publishing and begins answering requests.
func (s *ZeroMQService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return ErrServiceClosed
	}
	if s.running {
		return nil
	}
	s.running = true
	if s.rep != nil {
		s.rep.start(&s.wg)
	}
	s.logger.Infof("ZeroMQ service started")
	return nil
}

// Stop closes both sockets and terminates the context. It cannot be restarted.
func (s *ZeroMQService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return
	}
	s.running = false
	if s.rep != nil {
		s.rep.stop()
	}
	s.pub.close()
	s.wg.Wait()

	s.ctx.Term()
	s.ctx = nil
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends payload as a two-frame [topic, payload] message.
func (s *ZeroMQService) PublishMessage(topic string, payload []byte) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return ErrServiceClosed
	}
	return s.pub.send(topic, payload)
}

// PublishJSON wraps data in an Envelope stamped with the vehicle id.
func (s *ZeroMQService) PublishJSON(topic string, msgType string, data interface{}) error {
	payload, err := newEnvelope(msgType, s.vehicleID, data)
	if err != nil {
		return err
	}
	return s.PublishMessage(topic, payload)
}

// PublishEndpoint returns the bound PUB endpoint with any wildcard port resolved.
func (s *ZeroMQService) PublishEndpoint() string {
	return s.pub.endpoint
}

// RequestEndpoint returns the bound REP endpoint, or "" when disabled.
func (s *ZeroMQService) RequestEndpoint() string {
	if s.rep == nil {
		return ""
	}
	return s.rep.endpoint
}
