package storeerr

import "strings"

// Kind is the failure class of a store error.
type Kind int

const (
	// Unknown is any failure that matches no other kind.
	Unknown Kind = iota
	// NotFound means the requested item does not exist.
	NotFound
	// ResourceMissing means the backing table or collection does not exist.
	ResourceMissing
	// CredentialsInvalid means the caller's credentials were rejected.
	CredentialsInvalid
	// Network means a transient transport or capacity failure.
	Network
	// Validation means the request itself was malformed.
	Validation
)

var kindNames = map[Kind]string{
	Unknown:            "unknown",
	NotFound:           "not_found",
	ResourceMissing:    "resource_missing",
	CredentialsInvalid: "credentials_invalid",
	Network:            "network",
	Validation:         "validation",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Unknown]
}

// ParseKind maps a wire name back to a Kind. Unrecognized names are Unknown.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Unknown
}

// Recovery is the action a caller takes for a classified error.
type Recovery int

const (
	// Propagate returns the error to the caller.
	Propagate Recovery = iota
	// EmptyResult replaces the error with an empty result.
	EmptyResult
	// Retry repeats the operation within the retry budget.
	Retry
)

func (r Recovery) String() string {
	switch r {
	case EmptyResult:
		return "empty_result"
	case Retry:
		return "retry"
	default:
		return "propagate"
	}
}

// ReadRecovery is the recovery action for a failed read.
// Reads are never retried.
func (k Kind) ReadRecovery() Recovery {
	switch k {
	case NotFound, ResourceMissing:
		return EmptyResult
	default:
		return Propagate
	}
}

// WriteRecovery is the recovery action for a failed write.
func (k Kind) WriteRecovery() Recovery {
	if k == Network {
		return Retry
	}
	return Propagate
}
