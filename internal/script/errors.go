package script

import "fmt"

// ErrorKind classifies interpreter failures.
type ErrorKind int

const (
	InvalidSyntax ErrorKind = iota
	InvalidKey
	InvalidIteration
	InvalidCalculation
	IntegerOverflow
	DivisionByZero
	UndefinedVariable
	UndefinedFilter
	InvalidConversion
	InvalidArgumentCount
	ExecutionLimitExceeded
	Custom
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidSyntax:
		return "invalid syntax"
	case InvalidKey:
		return "invalid key"
	case InvalidIteration:
		return "invalid iteration"
	case InvalidCalculation:
		return "invalid calculation"
	case IntegerOverflow:
		return "integer overflow"
	case DivisionByZero:
		return "division by zero"
	case UndefinedVariable:
		return "undefined variable"
	case UndefinedFilter:
		return "undefined filter"
	case InvalidConversion:
		return "invalid conversion"
	case InvalidArgumentCount:
		return "invalid argument count"
	case ExecutionLimitExceeded:
		return "execution limit exceeded"
	case Custom:
		return "error"
	default:
		return "unknown"
	}
}

// Error is returned by every failing interpreter operation.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, script.ErrDivisionByZero).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is.
var (
	ErrInvalidSyntax          = &Error{Kind: InvalidSyntax}
	ErrInvalidKey             = &Error{Kind: InvalidKey}
	ErrInvalidIteration       = &Error{Kind: InvalidIteration}
	ErrInvalidCalculation     = &Error{Kind: InvalidCalculation}
	ErrIntegerOverflow        = &Error{Kind: IntegerOverflow}
	ErrDivisionByZero         = &Error{Kind: DivisionByZero}
	ErrUndefinedVariable      = &Error{Kind: UndefinedVariable}
	ErrUndefinedFilter        = &Error{Kind: UndefinedFilter}
	ErrInvalidConversion      = &Error{Kind: InvalidConversion}
	ErrInvalidArgumentCount   = &Error{Kind: InvalidArgumentCount}
	ErrExecutionLimitExceeded = &Error{Kind: ExecutionLimitExceeded}
)
