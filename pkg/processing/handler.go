package processing

import (
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/telemetry"
)

// MessagePublisher defines the interface for publishing messages
type MessagePublisher interface {
	PublishMessage(topic string, data []byte) error
}

// PublishingResultHandler logs processed snapshots and publishes them on a topic
type PublishingResultHandler struct {
	logger    customlog.Logger
	publisher MessagePublisher
	topic     string
}

// NewPublishingResultHandler creates a handler publishing on topic. A nil
// publisher only logs.
func NewPublishingResultHandler(logger customlog.Logger, publisher MessagePublisher, topic string) *PublishingResultHandler {
	return &PublishingResultHandler{
		logger:    logger,
		publisher: publisher,
		topic:     topic,
	}
}

// HandleResult handles a processed snapshot
func (h *PublishingResultHandler) HandleResult(result *ProcessResult) {
	if result.Error != nil {
		h.logger.Errorf("Error processing snapshot %d: %v", result.Sequence, result.Error)
		return
	}

	h.logger.Debugf("Cycle %d %s: %s", result.Sequence, result.Snapshot.Outcome,
		telemetry.FormatForces(result.Snapshot.Allocation.Forces()))

	if h.publisher == nil || len(result.Data) == 0 {
		return
	}
	if err := h.publisher.PublishMessage(h.topic, result.Data); err != nil {
		h.logger.Errorf("Failed to publish snapshot %d on '%s': %v", result.Sequence, h.topic, err)
	}
}

// CreateHandlerFunc creates a ResultHandler function for the ProcessingPool
func (h *PublishingResultHandler) CreateHandlerFunc() ResultHandler {
	return func(processResult *ProcessResult) {
		if processResult == nil {
			h.logger.Errorf("Received nil ProcessResult")
			return
		}
		h.HandleResult(processResult)
	}
}
