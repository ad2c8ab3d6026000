package model

// StatusResponse system status snapshot returned by GET /status.
type StatusResponse struct {
	Execution  string         `json:"execution"` // running, paused
	TaskCounts map[string]int `json:"task_counts"`
	Queues     map[string]int `json:"queues,omitempty"` // queued items per queue
}

// MetaResponse static service metadata returned by GET /meta.
type MetaResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
