package constants

// Context keys
const (
	ContextKeyUserID = "user_id"
)

// Pagination
const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 6
)

// Attachment limits
const (
	// MaxAudioBytes is the per-file upload ceiling advertised to users.
	MaxAudioBytes = 25 * 1024 * 1024
)
