package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/open-teleop/rovcontrol/domain/teleop"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
)

// ControlWebSocketHandler reads JSON intents and feeds them to the control loop.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, teleopService *teleop.TeleopService) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Control WS connection closed: %v", err)
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		reply := handleControlMessage(msg, teleopService)
		if reply.Status != replyQueued {
			logger.Warnf("Control WS intent %s: %s", reply.Status, reply.Error)
		}
		if err := conn.WriteJSON(reply); err != nil {
			logger.Errorf("Control WS write error: %v", err)
			break
		}
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

func handleControlMessage(msg []byte, teleopService *teleop.TeleopService) ControlReply {
	var intent protocol.Intent
	if err := json.Unmarshal(msg, &intent); err != nil {
		return ControlReply{Status: replyRejected, Error: err.Error()}
	}

	frame, err := teleopService.SendIntent(intent)
	switch {
	case errors.Is(err, teleop.ErrControlBusy):
		return ControlReply{Status: replyBusy, Error: err.Error()}
	case err != nil:
		return ControlReply{Status: replyRejected, Error: err.Error()}
	}
	return ControlReply{Status: replyQueued, Frame: teleop.FrameValues(frame)}
}
