package checkersdto

// DomainError is the typed failure surfaced to the presentation layer. Two
// DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e DomainError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = "checkers client error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e DomainError) Unwrap() error { return e.Err }

func (e DomainError) Is(target error) bool {
	switch t := target.(type) {
	case DomainError:
		return t.Code != "" && t.Code == e.Code
	case *DomainError:
		return t != nil && t.Code != "" && t.Code == e.Code
	default:
		return false
	}
}

// Wrap returns a copy of e carrying cause.
func (e DomainError) Wrap(cause error) DomainError {
	e.Err = cause
	return e
}
