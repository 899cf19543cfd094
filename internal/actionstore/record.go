package actionstore

import "time"

// Record states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusError     = "error"
)

// PendingCreate is a detector create the model service acknowledged but
// that was not confirmed readable before the CLI stopped waiting. It holds
// what is needed to finish the create later: the UUID to poll and the tags
// to map once the detector shows up.
type PendingCreate struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	DetectorUUID string

	// ModelService is the base URL the detector was created on.
	ModelService string

	// User is the model-service user the create ran as.
	User string

	// Tags, when non-empty, is the metric the detector should be mapped to.
	Tags map[string]string

	// Status is one of StatusPending, StatusConfirmed or StatusError.
	Status string

	// ErrorMessage explains the last failure when Status is StatusError.
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}
