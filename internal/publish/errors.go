package publish

// Error is a publish-stage error with a stable code for summary logs.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrPublishFailed wraps an exhausted or permanently failed channel post.
	// The session survives it so the user can retry or cancel.
	ErrPublishFailed = &Error{code: "PUBLISH_FAILED", msg: "posting to the channel failed, press Publish to try again"}
	// ErrPersistenceFailed marks a record write that failed after the channel
	// post succeeded. Logged and swallowed; the post stands.
	ErrPersistenceFailed = &Error{code: "PERSISTENCE_FAILED", msg: "recording the submission failed"}
)
