package auditlog

import "time"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// AuditEntry is one recorded command invocation.
type AuditEntry struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Command      string    `json:"command"`
	Args         string    `json:"args,omitempty"`
	ModelService string    `json:"model_service,omitempty"`
	User         string    `json:"user,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ResourceName string    `json:"resource_name,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Command      string
	ResourceType string
	ResourceID   string
	Limit        int
}
