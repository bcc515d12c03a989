package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Envelope types on the request socket and the notification topic.
const (
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeStatusRequest  = "STATUS_REQUEST"
	MsgTypeStatusResponse = "STATUS_RESPONSE"
	MsgTypeConfigUpdated  = "CONFIG_UPDATED"
	MsgTypeError          = "ERROR"
)

// Envelope wraps every JSON message exchanged over ZeroMQ. Telemetry is sent
// as raw flatbuffers and does not use it.
type Envelope struct {
	Type        string      `json:"type"`
	VehicleID   string      `json:"vehicle_id,omitempty"`
	TimestampNs int64       `json:"timestamp_ns"`
	Data        interface{} `json:"data,omitempty"`
}

// ErrorBody is the Data of an ERROR envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func newEnvelope(msgType, vehicleID string, data interface{}) ([]byte, error) {
	out, err := json.Marshal(Envelope{
		Type:        msgType,
		VehicleID:   vehicleID,
		TimestampNs: time.Now().UnixNano(),
		Data:        data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", msgType, err)
	}
	return out, nil
}

// errorEnvelope answers a failed request. Malformed and unknown requests are
// the caller's fault (400); anything else is ours (500).
func errorEnvelope(err error) []byte {
	code := 500
	if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrUnknownMessageType) {
		code = 400
	}
	out, _ := newEnvelope(MsgTypeError, "", ErrorBody{Message: err.Error(), Code: code})
	return out
}

// RequestHandler answers one request type on the request socket.
type RequestHandler interface {
	Handle(request []byte) ([]byte, error)
}

// RequestHandlerFunc adapts a function to RequestHandler.
type RequestHandlerFunc func(request []byte) ([]byte, error)

func (f RequestHandlerFunc) Handle(request []byte) ([]byte, error) {
	return f(request)
}

// RequestRouter picks the handler for a request by its envelope type.
type RequestRouter struct {
	mu       sync.RWMutex
	handlers map[string]RequestHandler
	logger   customlog.Logger
}

func NewRequestRouter(logger customlog.Logger) *RequestRouter {
	return &RequestRouter{
		handlers: make(map[string]RequestHandler),
		logger:   logger,
	}
}

// Handle registers h for msgType, replacing any earlier handler.
func (r *RequestRouter) Handle(msgType string, h RequestHandler) {
	r.mu.Lock()
	r.handlers[msgType] = h
	r.mu.Unlock()
	r.logger.Debugf("Request handler registered for %s", msgType)
}

// Route decodes the envelope type and hands the raw request to its handler.
func (r *RequestRouter) Route(request []byte) ([]byte, error) {
	msgType, err := envelopeType(request)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	h, ok := r.handlers[msgType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msgType)
	}
	return h.Handle(request)
}

func envelopeType(request []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(request, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return head.Type, nil
}
