package encounter

// Action is a combat action submitted for the current actor. The set is
// closed: Attack, Defend, Cast, UseItem, and Flee.
type Action interface {
	kind() string
}

// Attack swings at one enemy, resolving the actor's full attack routine.
type Attack struct {
	Target Slot
}

// Defend raises the actor's armor class until its next turn comes around.
type Defend struct{}

// Cast casts a known spell. Target is ignored for self and group shapes.
type Cast struct {
	SpellID string
	Target  Slot
}

// UseItem expends a charge of a carried item. Target is ignored for self
// and group shapes. Monsters cannot use items.
type UseItem struct {
	ItemID string
	Target Slot
}

// Flee attempts to escape. A successful player flee ends the encounter for
// the whole party; a fleeing monster simply leaves the field.
type Flee struct{}

func (Attack) kind() string  { return "attack" }
func (Defend) kind() string  { return "defend" }
func (Cast) kind() string    { return "cast" }
func (UseItem) kind() string { return "use-item" }
func (Flee) kind() string    { return "flee" }

// EventKind labels one entry in an action's outcome.
type EventKind string

const (
	EventHit       EventKind = "hit"
	EventMiss      EventKind = "miss"
	EventDamage    EventKind = "damage"
	EventHeal      EventKind = "heal"
	EventCondition EventKind = "condition"
	EventDefend    EventKind = "defend"
	EventFled      EventKind = "fled"
	EventFleeFail  EventKind = "flee-failed"
	EventHeld      EventKind = "held"
	EventDefeat    EventKind = "defeat"
)

// Event is one observable consequence of a resolved action.
type Event struct {
	Kind   EventKind
	Target Slot
	// Roll and Threshold are set for hit and miss events.
	Roll      int
	Threshold int
	// Amount is damage dealt or hit points restored.
	Amount int
	// ConditionID is set for condition events.
	ConditionID string
}

// Outcome is the full record of one resolved turn, appended to the
// encounter transcript.
type Outcome struct {
	Round  int
	Actor  Slot
	Action string
	Events []Event
}
