package storeerr

import "errors"

// StoreError is a classified store failure.
type StoreError struct {
	// Kind is the failure class.
	Kind Kind

	// Op names the operation that failed, e.g. "query" or "create".
	Op string

	// Err is the original cause.
	Err error
}

// New builds a StoreError directly, for callers that already know the kind.
func New(kind Kind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

func (e *StoreError) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return "storeerr: " + msg
}

// Unwrap returns the original cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches another StoreError by kind, so errors.Is(err, ErrNetwork) works
// for any network failure regardless of cause.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Kind targets for errors.Is.
var (
	ErrNotFound           = &StoreError{Kind: NotFound}
	ErrResourceMissing    = &StoreError{Kind: ResourceMissing}
	ErrCredentialsInvalid = &StoreError{Kind: CredentialsInvalid}
	ErrNetwork            = &StoreError{Kind: Network}
	ErrValidation         = &StoreError{Kind: Validation}
	ErrUnknown            = &StoreError{Kind: Unknown}
)

// KindOf classifies err and returns its kind. A nil error is Unknown.
func KindOf(err error) Kind {
	if se := Classify(err); se != nil {
		return se.Kind
	}
	return Unknown
}

// IsRetryable reports whether a write that failed with err may be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).WriteRecovery() == Retry
}

// As extracts the StoreError already present in err's chain.
func As(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
