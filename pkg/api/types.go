package api

// ControlReply is sent back on the control WebSocket for every text message.
type ControlReply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Frame  []int  `json:"frame,omitempty"`
}

const (
	replyQueued   = "queued"
	replyRejected = "rejected"
	replyBusy     = "busy"
)
