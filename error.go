package kafka

import "fmt"

// Error is the type of the sentinel error values returned by this package.
//
// Lookup misses (Find or LookupPartition finding nothing, a partition not
// yet known) are never reported through Error; they come back as a zero
// value or an ok bool, matching the rest of the core's propagation policy.
// Error is reserved for the handful of conditions reported from this core.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrInvalidArg is returned by Client.CreateOrFind when the supplied
	// TopicConfig is invalid: a non-positive MessageTimeout or
	// RequestTimeout, or an empty topic name.
	ErrInvalidArg Error = "invalid argument"

	// ErrUnknownTopic is returned by PartitionCountUpdate when the named
	// topic has no local handle. TopicUpdate returns no error; it logs an
	// unknown topic and ignores the update.
	ErrUnknownTopic Error = "unknown topic"

	// ErrNoUA is returned by Topic.MoveToUnassigned when the topic has no
	// unassigned partition left, e.g. after RemoveAllPartitions.
	ErrNoUA Error = "no unassigned partition available"
)

// InvariantError reports the violation of a programmer-contract invariant.
// These are fatal: the core only ever raises them via panic, never returns
// them, since by definition the caller already broke the contract and
// cannot act on a returned error.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invariant violated: %s", e.Invariant)
	}
	return fmt.Sprintf("invariant violated: %s (%s)", e.Invariant, e.Detail)
}

func invariant(cond bool, name, detail string) {
	if !cond {
		panic(&InvariantError{Invariant: name, Detail: detail})
	}
}
