package zeromq

import (
	"fmt"

	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

// ConfigHandler answers CONFIG_REQUEST with the vehicle config the running
// controller was built from, not the stored one.
type ConfigHandler struct {
	config *config.VehicleConfig
	logger customlog.Logger
}

func NewConfigHandler(cfg *config.VehicleConfig, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{config: cfg, logger: logger}
}

func (h *ConfigHandler) Handle(request []byte) ([]byte, error) {
	if err := expectType(request, MsgTypeConfigRequest); err != nil {
		return nil, err
	}
	h.logger.Debugf("Answering config request for %s", h.config.VehicleID)
	return newEnvelope(MsgTypeConfigResponse, h.config.VehicleID, h.config)
}

// StatusProvider reports the controller's current state.
type StatusProvider interface {
	Status() interface{}
}

// StatusHandler answers STATUS_REQUEST from a StatusProvider.
type StatusHandler struct {
	provider  StatusProvider
	vehicleID string
}

func NewStatusHandler(provider StatusProvider, vehicleID string) *StatusHandler {
	return &StatusHandler{provider: provider, vehicleID: vehicleID}
}

func (h *StatusHandler) Handle(request []byte) ([]byte, error) {
	if err := expectType(request, MsgTypeStatusRequest); err != nil {
		return nil, err
	}
	return newEnvelope(MsgTypeStatusResponse, h.vehicleID, h.provider.Status())
}

// RegisterRequestHandlers installs the config and status handlers.
func RegisterRequestHandlers(service *ZeroMQService, cfg *config.VehicleConfig, status StatusProvider, logger customlog.Logger) {
	service.HandleRequest(MsgTypeConfigRequest, NewConfigHandler(cfg, logger))
	service.HandleRequest(MsgTypeStatusRequest, NewStatusHandler(status, cfg.VehicleID))
}

func expectType(request []byte, want string) error {
	got, err := envelopeType(request)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, got)
	}
	return nil
}
