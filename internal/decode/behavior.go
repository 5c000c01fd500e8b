package decode

import "github.com/roach88/firedoc/internal/status"

// ServerTimestampBehavior selects how a pending server timestamp is
// materialized for the reader. The zero value behaves like BehaviorNone.
type ServerTimestampBehavior string

const (
	// BehaviorNone resolves pending timestamps to nil.
	BehaviorNone ServerTimestampBehavior = "none"

	// BehaviorEstimate resolves pending timestamps to the local write time.
	BehaviorEstimate ServerTimestampBehavior = "estimate"

	// BehaviorPrevious resolves pending timestamps to the field's previous
	// value, or nil if it had none.
	BehaviorPrevious ServerTimestampBehavior = "previous"
)

// ValidBehaviors lists the accepted behavior names.
var ValidBehaviors = []ServerTimestampBehavior{BehaviorNone, BehaviorEstimate, BehaviorPrevious}

// ParseServerTimestampBehavior validates a behavior name. The empty string
// selects BehaviorNone.
func ParseServerTimestampBehavior(s string) (ServerTimestampBehavior, error) {
	if s == "" {
		return BehaviorNone, nil
	}
	b := ServerTimestampBehavior(s)
	for _, valid := range ValidBehaviors {
		if b == valid {
			return b, nil
		}
	}
	return "", status.InvalidArgument("invalid server timestamp behavior %q: must be one of %v", s, ValidBehaviors)
}

func (b ServerTimestampBehavior) normalize() (ServerTimestampBehavior, error) {
	return ParseServerTimestampBehavior(string(b))
}
