// Package ipc is the unix-socket control channel between the CLI and the
// tracking daemon: newline-delimited JSON, one request and one response per
// connection.
package ipc

// Request is a JSON message sent from client to server.
type Request struct {
	Command string `json:"command"` // "ping", "status", "stop"
}

// Response is a JSON message sent from server to client.
type Response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// StatusData is returned by the "status" command.
type StatusData struct {
	SessionID   string           `json:"session_id"`
	Uptime      string           `json:"uptime"`
	TrackedDirs []string         `json:"tracked_dirs"`
	Recursive   bool             `json:"recursive"`
	Counts      map[string]int64 `json:"counts"`
	DBSizeBytes int64            `json:"db_size_bytes"`
}
