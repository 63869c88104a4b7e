package audit

import "time"

// Outcome represents the result of an audited tool invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Invocation is a single audit log entry for one MCP tool call.
// Immutable - once created, it is never modified.
type Invocation struct {
	ID        string        `json:"id"`
	Tool      string        `json:"tool"`
	Outcome   Outcome       `json:"outcome"`
	Detail    string        `json:"detail,omitempty"` // error message; empty on success
	Duration  time.Duration `json:"duration_ms"`
	CreatedAt time.Time     `json:"created_at"`
}
