package heritage

import "errors"

// Kind classifies an Error for transport mapping and retry decisions.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidState
	KindInvalidArgument
	KindConflict
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidState:
		return "invalid state"
	case KindInvalidArgument:
		return "invalid argument"
	case KindConflict:
		return "conflict"
	case KindStoreUnavailable:
		return "store unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified domain error. A bare kind sentinel (empty Msg)
// matches every Error of that kind under errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

var (
	ErrSiteNotFound     = &Error{Kind: KindNotFound, Msg: "site not found"}
	ErrTripNotFound     = &Error{Kind: KindNotFound, Msg: "trip not found"}
	ErrBuildingNotFound = &Error{Kind: KindNotFound, Msg: "building not found for this trip"}
	ErrQuestionNotFound = &Error{Kind: KindNotFound, Msg: "question not found for this site"}
	ErrSessionNotFound  = &Error{Kind: KindNotFound, Msg: "game session not found"}

	ErrTripNotActive   = &Error{Kind: KindInvalidState, Msg: "trip is not active"}
	ErrNoActiveSession = &Error{Kind: KindInvalidState, Msg: "no active session"}

	ErrUserRequired       = &Error{Kind: KindInvalidArgument, Msg: "user id is required"}
	ErrInvalidSessionType = &Error{Kind: KindInvalidArgument, Msg: "session type must be overview or trivia"}
	ErrInvalidOption      = &Error{Kind: KindInvalidArgument, Msg: "selected option must be one of A, B, C, D"}
)

// KindOf returns the Kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
