package conversation

// Error is a conversation-level error with a stable code for summary logs.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrBlocked denies session creation for blacklisted users.
	ErrBlocked = &Error{code: "USER_BLOCKED", msg: "you are not allowed to submit"}
	// ErrInvalidTransition rejects an event the current state does not accept.
	// The session is left unchanged.
	ErrInvalidTransition = &Error{code: "INVALID_TRANSITION", msg: "that action is not valid right now"}
	// ErrNothingCollected refuses to close a collection phase that still
	// needs at least one item.
	ErrNothingCollected = &Error{code: "NOTHING_COLLECTED", msg: "send at least one attachment first"}
)
