package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/services"
)

// HeaderPendingRestart is set on config responses. It is "true" once a stored
// config differs from the one the running controller was built from.
const HeaderPendingRestart = "X-Pending-Restart"

const yamlContentType = "application/x-yaml"

// ConfigHandler serves the stored vehicle config as YAML.
type ConfigHandler struct {
	configService services.VehicleConfigService
	logger        customlog.Logger
}

func NewConfigHandler(configService services.VehicleConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("api: nil VehicleConfigService")
	}
	return &ConfigHandler{configService: configService, logger: logger}
}

// RegisterConfigRoutes mounts GET and PUT /api/v1/config/vehicle on router.
func RegisterConfigRoutes(router fiber.Router, configService services.VehicleConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)
	group := router.Group("/api/v1/config")
	group.Get("/vehicle", h.getVehicleConfig)
	group.Put("/vehicle", h.putVehicleConfig)
}

func (h *ConfigHandler) setPending(c *fiber.Ctx) {
	c.Set(HeaderPendingRestart, strconv.FormatBool(h.configService.PendingRestart()))
}

func (h *ConfigHandler) getVehicleConfig(c *fiber.Ctx) error {
	body, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Reading vehicle config failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read vehicle config: "+err.Error())
	}
	h.setPending(c)
	c.Set(fiber.HeaderContentType, yamlContentType)
	return c.Send(body)
}

func (h *ConfigHandler) putVehicleConfig(c *fiber.Ctx) error {
	if ct := c.Get(fiber.HeaderContentType); !isYAML(ct) {
		h.logger.Warnf("Vehicle config PUT with Content-Type %q, parsing as YAML", ct)
	}

	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "request body cannot be empty")
	}

	if err := h.configService.UpdateConfig(body); err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.logger.Errorf("Storing vehicle config failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store vehicle config: "+err.Error())
	}

	h.setPending(c)
	return c.JSON(fiber.Map{
		"message": "vehicle config stored",
		"applies": "next_start",
	})
}

func isYAML(contentType string) bool {
	switch contentType {
	case yamlContentType, "application/yaml", "text/yaml":
		return true
	}
	return false
}
