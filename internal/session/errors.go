package session

// Error is a session store error with a stable code for handler summary logs.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrAlreadyActive rejects a session create while one exists for the user.
	ErrAlreadyActive = &Error{code: "ALREADY_ACTIVE", msg: "a submission session is already active"}
	// ErrNotFound signals a lookup or mutation on an absent session.
	ErrNotFound = &Error{code: "SESSION_NOT_FOUND", msg: "no active submission session"}
)
