package zeromq

import (
	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

// ConfigNotificationTopic carries CONFIG_UPDATED notices.
const ConfigNotificationTopic = "configuration.notification"

// Publisher is the publishing half of ZeroMQService.
type Publisher interface {
	PublishMessage(topic string, message []byte) error
	PublishJSON(topic string, messageType string, data interface{}) error
}

// ConfigPublisher announces vehicle config changes to subscribers
type ConfigPublisher struct {
	publisher Publisher
	logger    customlog.Logger
}

// NewConfigPublisher creates a new publisher for configuration updates
func NewConfigPublisher(publisher Publisher, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishConfigUpdatedNotification publishes a notification that the stored
// vehicle config changed. It takes effect on the next start.
func (p *ConfigPublisher) PublishConfigUpdatedNotification(cfg *config.VehicleConfig) error {
	p.logger.Infof("Publishing configuration update notification")

	notification := map[string]interface{}{
		"vehicle_id":   cfg.VehicleID,
		"version":      cfg.Version,
		"last_updated": cfg.LastUpdated,
		"applies":      "next_start",
	}
	return p.publisher.PublishJSON(ConfigNotificationTopic, MsgTypeConfigUpdated, notification)
}
