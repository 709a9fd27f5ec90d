package submission

// Error is a user-recoverable domain error. Code feeds the err_code attribute
// of handler summary logs.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrCapacityExceeded signals the active mode's attachment ceiling was hit.
	ErrCapacityExceeded = &Error{code: "CAPACITY_EXCEEDED", msg: "attachment limit reached"}
	// ErrUnsupportedKind signals an attachment kind the active mode does not accept.
	ErrUnsupportedKind = &Error{code: "UNSUPPORTED_KIND", msg: "unsupported attachment kind"}
	// ErrIncompatibleItems rejects a mode switch that would orphan held attachments.
	ErrIncompatibleItems = &Error{code: "INCOMPATIBLE_ITEMS", msg: "held attachments are not valid under the requested mode"}
	// ErrModeSwitched rejects a second mode switch within one session.
	ErrModeSwitched = &Error{code: "MODE_SWITCHED", msg: "mode was already switched once"}
	// ErrValidationFailed signals malformed field input (tags, link).
	ErrValidationFailed = &Error{code: "VALIDATION_FAILED", msg: "invalid input"}
)
