package encounter

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/dice"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
)

// State is the encounter's lifecycle phase.
type State int

const (
	StateActive State = iota
	// StateVictory: every monster is defeated or has fled.
	StateVictory
	// StateDefeat: every party member is down.
	StateDefeat
	// StateFled: the party escaped; no rewards.
	StateFled
)

func (s State) String() string {
	switch s {
	case StateVictory:
		return "victory"
	case StateDefeat:
		return "defeat"
	case StateFled:
		return "fled"
	}
	return "active"
}

// Options tunes encounter behavior. Zero values take the documented defaults.
type Options struct {
	// InitiativeDie is the die added to speed each round; defaults to 10.
	InitiativeDie int
	// DefendACBonus is the armor class bonus of the defend action; defaults
	// to 2.
	DefendACBonus int
	// AmbushSpeedBonus is added to the advantaged side's first-round
	// initiative rolls; defaults to 3.
	AmbushSpeedBonus int
	// FleeSpeedMargin is how much faster than the fastest opponent a
	// combatant must be to escape; defaults to 0 (equal speed suffices).
	FleeSpeedMargin int
	// MaxSideSize caps how many monsters an encounter can field; defaults
	// to 6.
	MaxSideSize int

	Handicap Handicap
	// Source supplies all randomness; defaults to the crypto source.
	Source dice.Source
	// Hooks runs condition scripts; nil disables scripting.
	Hooks ConditionHooks
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.InitiativeDie == 0 {
		o.InitiativeDie = 10
	}
	if o.DefendACBonus == 0 {
		o.DefendACBonus = 2
	}
	if o.AmbushSpeedBonus == 0 {
		o.AmbushSpeedBonus = 3
	}
	if o.MaxSideSize == 0 {
		o.MaxSideSize = party.MaxMembers
	}
	if o.Source == nil {
		o.Source = dice.NewCryptoSource()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Encounter is one combat from first initiative roll to terminal state. All
// methods are safe for concurrent use; resolution itself is strictly
// sequential.
type Encounter struct {
	mu sync.Mutex

	id     string
	opts   Options
	db     *content.Database
	party  *party.Party
	logger *zap.Logger

	players  []*Combatant
	monsters []*Combatant
	ledger   *Ledger
	roller   *dice.Roller

	defendTpl *content.ConditionTemplate

	round      int
	order      []Slot
	cursor     int
	transcript []Outcome
	state      State
	summary    *Summary
}

// New assembles an encounter between the party's conscious members and the
// named monster templates. The encounter does not start until Start is
// called.
//
// Precondition: every ID in monsterIDs is present in db.
// Postcondition: party state is untouched until the encounter finishes.
func New(db *content.Database, pty *party.Party, monsterIDs []string, opts Options) (*Encounter, error) {
	opts.applyDefaults()

	fighters := pty.Conscious()
	if len(fighters) == 0 {
		return nil, fmt.Errorf("encounter needs at least one conscious party member")
	}
	if len(monsterIDs) == 0 {
		return nil, fmt.Errorf("encounter needs at least one monster")
	}
	if len(monsterIDs) > opts.MaxSideSize {
		return nil, fmt.Errorf("encounter side limited to %d monsters, got %d", opts.MaxSideSize, len(monsterIDs))
	}

	e := &Encounter{
		id:    uuid.NewString(),
		opts:  opts,
		db:    db,
		party: pty,
	}
	e.logger = opts.Logger.With(zap.String("encounter_id", e.id))
	e.roller = dice.NewRoller(opts.Source, e.logger)

	for i, c := range fighters {
		e.players = append(e.players, newPlayerCombatant(c, i))
	}

	seen := make(map[string]int)
	for i, id := range monsterIDs {
		tpl, ok := db.Monsters[id]
		if !ok {
			return nil, fmt.Errorf("unknown monster template %q", id)
		}
		seen[id]++
		name := tpl.Name
		if n := seen[id]; n > 1 {
			name = fmt.Sprintf("%s %d", tpl.Name, n)
		}
		e.monsters = append(e.monsters, newMonsterCombatant(tpl, i, name))
	}

	e.ledger = newLedger(opts.Hooks, e.logger, func() int { return e.round })
	// Duration 2 lets the guard survive the end-of-round tick; it actually
	// expires when the defender's next turn starts.
	e.defendTpl = &content.ConditionTemplate{
		ID:        "defend",
		Name:      "Defending",
		Kind:      content.KindStatModifier,
		Stat:      content.StatArmorClass,
		Magnitude: opts.DefendACBonus,
		Duration:  2,
		Exclusive: true,
	}

	for _, cb := range e.players {
		for _, ac := range cb.Character.Conditions {
			tpl, ok := db.Conditions[ac.ConditionID]
			if !ok {
				return nil, fmt.Errorf("character %q carries unknown condition %q", cb.Character.ID, ac.ConditionID)
			}
			e.ledger.Restore(cb, tpl, ac.Magnitude, ac.Remaining)
		}
	}
	return e, nil
}

// ID returns the encounter's unique identifier.
func (e *Encounter) ID() string { return e.id }

// Start rolls first-round initiative. The encounter handicap shapes only
// this round; later rounds are pure initiative.
func (e *Encounter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.round = 1
	e.order = rollInitiative(e.all(), e.roller.Source(), e.opts.InitiativeDie, e.opts.Handicap, e.opts.AmbushSpeedBonus)
	e.cursor = 0
	e.logger.Info("encounter started",
		zap.Stringer("handicap", e.opts.Handicap),
		zap.Int("players", len(e.players)),
		zap.Int("monsters", len(e.monsters)))
	e.skipHeld()
}

// Round returns the current round number, starting at 1.
func (e *Encounter) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// State returns the encounter's lifecycle phase.
func (e *Encounter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Order returns the remaining acting order for the current round.
func (e *Encounter) Order() []Slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Slot, len(e.order)-e.cursor)
	copy(out, e.order[e.cursor:])
	return out
}

// CurrentActor returns the slot whose action is awaited. ok is false once
// the encounter has reached a terminal state.
func (e *Encounter) CurrentActor() (Slot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return Slot{}, false
	}
	return e.order[e.cursor], true
}

// Combatant returns the combatant in the given slot, or nil.
func (e *Encounter) Combatant(slot Slot) *Combatant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookup(slot)
}

// Transcript returns every outcome resolved so far, in order.
func (e *Encounter) Transcript() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Outcome, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Summary returns the reward summary.
//
// Precondition: the encounter ended in victory; otherwise Summary returns
// nil.
func (e *Encounter) Summary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Resolve validates and applies an action submitted for actor, returning the
// recorded outcome. A submission for anyone but the current actor is rejected
// outright rather than applied to whoever happens to be up. A RejectionError
// leaves all encounter state exactly as it was, and the turn does not move.
func (e *Encounter) Resolve(actor Slot, action Action) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return Outcome{}, &InvariantError{Reason: fmt.Sprintf("resolve called in state %s", e.state)}
	}
	if actor != e.order[e.cursor] {
		return Outcome{}, reject(RejectInvalidActor, "turn has not arrived for %s; %s is up", actor, e.order[e.cursor])
	}
	current := e.lookup(actor)
	if current == nil || !current.Active() {
		return Outcome{}, &InvariantError{Reason: fmt.Sprintf("current actor %s is not active", actor)}
	}

	outcome, err := e.resolve(current, action)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Round = e.round
	outcome.Actor = actor
	e.transcript = append(e.transcript, outcome)
	e.logger.Info("action resolved",
		zap.Int("round", e.round),
		zap.Stringer("actor", actor),
		zap.String("action", outcome.Action),
		zap.Int("events", len(outcome.Events)))

	e.checkTerminal()
	if e.state != StateActive {
		e.finish()
		return outcome, nil
	}
	e.cursor++
	e.advance()
	return outcome, nil
}

// lookup returns the combatant at slot, or nil for an out-of-range slot.
func (e *Encounter) lookup(slot Slot) *Combatant {
	side := e.players
	if slot.Side == SideMonsters {
		side = e.monsters
	}
	if slot.Index < 0 || slot.Index >= len(side) {
		return nil
	}
	return side[slot.Index]
}

func (e *Encounter) all() []*Combatant {
	out := make([]*Combatant, 0, len(e.players)+len(e.monsters))
	out = append(out, e.players...)
	out = append(out, e.monsters...)
	return out
}

// activeSide returns the active combatants on one side.
func (e *Encounter) activeSide(side Side) []*Combatant {
	src := e.players
	if side == SideMonsters {
		src = e.monsters
	}
	var out []*Combatant
	for _, c := range src {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// advance moves the cursor to the next actionable combatant, ending the
// round when the order is exhausted.
func (e *Encounter) advance() {
	for {
		for e.cursor < len(e.order) {
			c := e.lookup(e.order[e.cursor])
			if c != nil && c.Active() {
				// A defend guard lasts until the defender's next turn starts.
				e.ledger.Expire(c, e.defendTpl.ID) //nolint:errcheck // defend has no hooks
				if !e.ledger.Disabled(c.Slot) {
					return
				}
				e.recordHeld(c)
			}
			e.cursor++
		}
		e.endRound()
		if e.state != StateActive {
			return
		}
	}
}

// skipHeld is advance without the implicit end-of-round; used right after
// initiative is rolled.
func (e *Encounter) skipHeld() {
	e.advance()
}

// recordHeld logs a disabled combatant's consumed turn.
func (e *Encounter) recordHeld(c *Combatant) {
	e.transcript = append(e.transcript, Outcome{
		Round:  e.round,
		Actor:  c.Slot,
		Action: "held",
		Events: []Event{{Kind: EventHeld, Target: c.Slot}},
	})
}

// endRound ticks the condition ledger for every active combatant, checks for
// a terminal state, and rolls the next round's initiative.
func (e *Encounter) endRound() {
	for _, c := range e.all() {
		if !c.Active() {
			continue
		}
		res, err := e.ledger.Tick(c)
		if err != nil {
			// Hook failures are logged and the condition's built-in effect
			// stands; a broken script must not wedge the encounter.
			e.logger.Error("condition tick failed", zap.Stringer("slot", c.Slot), zap.Error(err))
		}
		if res.Damage > 0 || res.Healing > 0 || len(res.Expired) > 0 {
			e.transcript = append(e.transcript, tickOutcome(e.round, c, res))
		}
	}

	e.checkTerminal()
	if e.state != StateActive {
		e.finish()
		return
	}

	e.round++
	e.order = rollInitiative(e.all(), e.roller.Source(), e.opts.InitiativeDie, HandicapEven, 0)
	e.cursor = 0
}

func tickOutcome(round int, c *Combatant, res TickResult) Outcome {
	var events []Event
	if res.Damage > 0 {
		events = append(events, Event{Kind: EventDamage, Target: c.Slot, Amount: res.Damage})
	}
	if res.Healing > 0 {
		events = append(events, Event{Kind: EventHeal, Target: c.Slot, Amount: res.Healing})
	}
	for _, id := range res.Expired {
		events = append(events, Event{Kind: EventCondition, Target: c.Slot, ConditionID: id})
	}
	if res.Defeated {
		events = append(events, Event{Kind: EventDefeat, Target: c.Slot})
	}
	return Outcome{Round: round, Actor: c.Slot, Action: "tick", Events: events}
}

// checkTerminal updates state when either side has no active combatants.
func (e *Encounter) checkTerminal() {
	if e.state != StateActive {
		return
	}
	if len(e.activeSide(SideMonsters)) == 0 {
		e.state = StateVictory
		return
	}
	if len(e.activeSide(SidePlayers)) == 0 {
		playersFled := false
		for _, p := range e.players {
			if p.Status == StatusFled {
				playersFled = true
				break
			}
		}
		if playersFled {
			e.state = StateFled
		} else {
			e.state = StateDefeat
		}
	}
}

// finish computes rewards on victory and writes combat results back to the
// party.
func (e *Encounter) finish() {
	if e.state == StateVictory {
		e.summary = e.computeRewards()
	}
	e.writeBack()
	e.logger.Info("encounter finished",
		zap.Stringer("state", e.state),
		zap.Int("rounds", e.round))
}

// writeBack copies each player combatant's surviving state onto its
// character: HP, SP, and any conditions still running when the fight ended.
// Fled characters keep the HP and SP they escaped with. The synthetic defend
// guard never persists.
func (e *Encounter) writeBack() {
	for _, p := range e.players {
		c := p.Character
		c.HP = p.HP
		c.SP = p.SP
		c.Conditions = nil
		for _, inst := range e.ledger.Conditions(p.Slot) {
			if inst.Template.ID == e.defendTpl.ID {
				continue
			}
			c.Conditions = append(c.Conditions, party.ActiveCondition{
				ConditionID: inst.Template.ID,
				Magnitude:   inst.Magnitude,
				Remaining:   inst.Remaining,
			})
		}
	}
	if e.summary == nil {
		return
	}
	e.party.Gold += e.summary.Gold
	e.party.Gems += e.summary.Gems
	for i := range e.summary.Members {
		award := &e.summary.Members[i]
		if m := e.party.Member(award.CharacterID); m != nil {
			award.Levels = m.ApplyExperience(award.Experience)
		}
	}
}
