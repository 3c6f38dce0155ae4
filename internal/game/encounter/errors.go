package encounter

import "fmt"

// RejectionKind classifies why an action was refused. Rejections are ordinary
// control flow: the actor keeps its turn and may submit a different action.
type RejectionKind string

const (
	// RejectInvalidActor: the acting combatant is not the current actor, or
	// cannot act at all.
	RejectInvalidActor RejectionKind = "invalid-actor"
	// RejectInvalidTarget: the named target slot is empty, defeated, fled, or
	// on the wrong side for the effect.
	RejectInvalidTarget RejectionKind = "invalid-target"
	// RejectInsufficientResource: not enough spell points, gems, or item
	// charges.
	RejectInsufficientResource RejectionKind = "insufficient-resource"
	// RejectIneligibleCaster: the actor's class or level cannot cast the
	// spell, or the spell is not known.
	RejectIneligibleCaster RejectionKind = "ineligible-caster"
	// RejectWrongContext: the spell or item is not usable in combat.
	RejectWrongContext RejectionKind = "wrong-context"
	// RejectUnknownReference: the action names a spell or item with no
	// loaded template.
	RejectUnknownReference RejectionKind = "unknown-reference"
)

// RejectionError reports a refused action. No encounter state changed.
type RejectionError struct {
	Kind   RejectionKind
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("action rejected (%s): %s", e.Kind, e.Reason)
}

func reject(kind RejectionKind, format string, args ...any) error {
	return &RejectionError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError reports encounter state that should be unreachable. It
// signals a bug, not a bad action.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("encounter invariant violated: %s", e.Reason)
}
