package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/open-teleop/rovcontrol/domain/control"
	"github.com/open-teleop/rovcontrol/domain/diagnostic"
	"github.com/open-teleop/rovcontrol/domain/teleop"
	"github.com/open-teleop/rovcontrol/pkg/actuator"
	"github.com/open-teleop/rovcontrol/pkg/api"
	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/processing"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/open-teleop/rovcontrol/pkg/transport"
	"github.com/open-teleop/rovcontrol/pkg/zeromq"
	"github.com/open-teleop/rovcontrol/services"
)

// frameSource is a transport.FrameSource the controller owns and closes.
type frameSource interface {
	transport.FrameSource
	io.Closer
}

func main() {
	configDir := flag.String("config-dir", "./config", "directory holding "+config.BootstrapFileName)
	flag.Parse()

	bootstrap, err := config.LoadBootstrapConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load bootstrap configuration: %v", err)
	}

	logger, err := customlog.NewLogrusLogger(bootstrap.Logging.Level, bootstrap.Logging.LogPath, &customlog.RotationOptions{
		MaxSizeMB:  bootstrap.Logging.MaxSizeMB,
		MaxBackups: bootstrap.Logging.MaxBackups,
		MaxAgeDays: bootstrap.Logging.MaxAgeDays,
		Compress:   bootstrap.Logging.Compress,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(bootstrap, logger); err != nil {
		logger.Fatalf("Controller stopped: %v", err)
	}
	logger.Infof("Controller exited properly")
}

func run(bootstrap *config.BootstrapConfig, logger customlog.Logger) error {
	configService, err := services.NewVehicleConfigService(bootstrap.Data.VehicleConfigPath(), logger)
	if err != nil {
		return err
	}
	vehicle := configService.GetActiveConfig()

	allocator, err := vehicle.NewAllocator()
	if err != nil {
		return err
	}
	policy, err := control.ParseIncompletePolicy(vehicle.Protocol.IncompleteFramePolicy)
	if err != nil {
		return err
	}

	port, closePort, err := openActuator(bootstrap.Actuator, logger)
	if err != nil {
		return err
	}
	defer closePort()
	adapter := actuator.NewAdapter(port, bootstrap.Actuator.MaxDuty, logger.WithField(customlog.ComponentField, "actuator"))

	source, frames, err := openFrameSource(bootstrap, logger)
	if err != nil {
		return err
	}

	var zmqService *zeromq.ZeroMQService
	var publisher processing.MessagePublisher
	if bootstrap.ZeroMQ.Enabled {
		zmqService, err = zeromq.NewZeroMQService(zeromq.ServiceConfig{
			PublishBindAddress: bootstrap.ZeroMQ.PublishBindAddress,
			RequestBindAddress: bootstrap.ZeroMQ.RequestBindAddress,
			SendHighWaterMark:  bootstrap.ZeroMQ.SendHighWaterMark,
			VehicleID:          vehicle.VehicleID,
		}, logger.WithField(customlog.ComponentField, "zeromq"))
		if err != nil {
			source.Close()
			return err
		}
		publisher = zmqService
		configService.SetPublisher(zeromq.NewConfigPublisher(zmqService, logger))
	}

	pool := processing.NewProcessingPool("telemetry", bootstrap.Processing.TelemetryWorkers,
		bootstrap.Processing.TelemetryQueueSize, logger.WithField(customlog.ComponentField, "telemetry"))
	pool.SetProcessor(processing.EncodeThrusterState)
	pool.SetResultHandler(processing.NewPublishingResultHandler(logger, publisher, bootstrap.ZeroMQ.Topic).CreateHandlerFunc())
	if err := pool.Start(); err != nil {
		source.Close()
		return err
	}

	controller := control.NewController(vehicle.NewDecoder(), allocator, adapter, &control.Options{
		Policy: policy,
		Sink:   pool,
	}, logger.WithField(customlog.ComponentField, "control"))

	diagnostics := diagnostic.NewDiagnosticService(controller, vehicle.VehicleID, vehicle.ThrusterName)
	diagnostics.AddSource("telemetry", func() interface{} { return pool.GetMetrics() })
	diagnostics.AddSource("config", func() interface{} {
		return map[string]interface{}{"pending_restart": configService.PendingRestart()}
	})

	var teleopService *teleop.TeleopService
	if frames != nil {
		teleopService = teleop.NewTeleopService(protocol.NewEncoder(protocol.DefaultDeadzone), frames, logger)
		diagnostics.AddSource("teleop", func() interface{} { return teleopService.Stats() })
	}

	if zmqService != nil {
		zeromq.RegisterRequestHandlers(zmqService, vehicle, diagnostics, logger)
		if err := zmqService.Start(); err != nil {
			pool.Stop()
			source.Close()
			return err
		}
		defer zmqService.Stop()
	}

	app := api.NewApp(api.Services{
		Config:      configService,
		Diagnostics: diagnostics,
		Teleop:      teleopService,
		Logger:      logger,
		AccessLog:   bootstrap.Logging.Level == "debug",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", bootstrap.Server.HTTPPort)
		logger.Infof("Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			serverErr <- err
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		logger.Infof("Control loop running (source=%s, policy=%s)", bootstrap.Control.FrameSource, policy)
		runErr <- controller.Run(ctx, source)
	}()

	var result error
	select {
	case <-ctx.Done():
		logger.Infof("Shutting down...")
	case err := <-serverErr:
		result = fmt.Errorf("http server failed: %w", err)
	case err := <-runErr:
		result = err
		runErr = nil
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	source.Close()
	if runErr != nil {
		if err := <-runErr; err != nil && !errors.Is(err, transport.ErrSourceClosed) {
			logger.Errorf("Control loop ended with error: %v", err)
		}
	}
	pool.Stop()

	counters := controller.Counters()
	logger.Infof("Cycles=%d applied=%d incomplete=%d rejected=%d actuator_errors=%d",
		counters.Cycles, counters.Applied, counters.Incomplete, counters.Rejected, counters.ActuatorErrors)
	return result
}

// openActuator returns the configured port and a function releasing it.
func openActuator(cfg config.ActuatorConfig, logger customlog.Logger) (actuator.Port, func(), error) {
	switch cfg.Backend {
	case config.ActuatorPCA9685:
		cycle := cfg.MaxDuty
		if cycle == 0 {
			cycle = actuator.DefaultMaxDuty
		}
		port, err := actuator.OpenPCA9685(actuator.PCA9685Config{Bus: cfg.I2CBus, Address: cfg.I2CAddress},
			cfg.Channels, cfg.PWMHz, cycle)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Driving thrusters through pca9685 %s/%#02x at %d Hz", cfg.I2CBus, cfg.I2CAddress, cfg.PWMHz)
		return port, func() {
			if err := port.Close(); err != nil {
				logger.Errorf("Failed to release thruster outputs: %v", err)
			}
		}, nil
	default:
		logger.Infof("Using simulated actuator outputs")
		return actuator.NewRecordingPort(256), func() {}, nil
	}
}

// openFrameSource returns the frame source and, for the websocket source, the
// channel teleop intents are pushed into.
func openFrameSource(bootstrap *config.BootstrapConfig, logger customlog.Logger) (frameSource, *transport.ChannelSource, error) {
	switch bootstrap.Control.FrameSource {
	case config.FrameSourceWebsocket:
		ch := transport.NewChannelSource(bootstrap.Control.ChannelQueueSize,
			time.Duration(bootstrap.Control.ChannelTimeoutMs)*time.Millisecond)
		return ch, ch, nil
	default:
		src, err := transport.OpenSerial(transport.SerialConfig{
			Port:        bootstrap.Serial.Port,
			Baud:        bootstrap.Serial.Baud,
			ReadTimeout: bootstrap.Serial.ReadTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Reading frames from %s at %d baud", bootstrap.Serial.Port, bootstrap.Serial.Baud)
		return src, nil, nil
	}
}
