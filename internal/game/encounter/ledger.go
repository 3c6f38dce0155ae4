package encounter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
)

// HookState is the view of a condition instance handed to a scripted hook.
// Hooks may adjust Magnitude and Remaining; everything else is read-only.
type HookState struct {
	ConditionID string
	Magnitude   int
	Remaining   int
	Round       int
	TargetHP    int
	TargetMaxHP int
}

// ConditionHooks runs a condition template's optional scripts. A nil runner
// disables scripting; built-in behavior is unaffected.
type ConditionHooks interface {
	// Eval runs source against st and returns the possibly-adjusted state.
	Eval(source string, st HookState) (HookState, error)
}

// ConditionInstance is one active condition on one combatant.
type ConditionInstance struct {
	Template *content.ConditionTemplate
	// Magnitude is the instance's effective strength; it starts at the
	// template value and may be adjusted by hooks or exclusive merging.
	Magnitude int
	// Remaining is rounds left, decremented on each end-of-round tick.
	Remaining int
}

// Ledger tracks every active condition in an encounter, keyed by slot.
// The ledger owns stat recomputation: whenever a combatant's condition set
// changes, current stats are rebuilt from base plus surviving modifiers.
type Ledger struct {
	entries map[Slot][]*ConditionInstance
	hooks   ConditionHooks
	logger  *zap.Logger
	round   func() int
}

func newLedger(hooks ConditionHooks, logger *zap.Logger, round func() int) *Ledger {
	return &Ledger{
		entries: make(map[Slot][]*ConditionInstance),
		hooks:   hooks,
		logger:  logger,
		round:   round,
	}
}

// Conditions returns the active instances on the given slot.
func (l *Ledger) Conditions(slot Slot) []*ConditionInstance {
	return l.entries[slot]
}

// Disabled reports whether an active disable condition prevents the
// combatant from acting.
func (l *Ledger) Disabled(slot Slot) bool {
	for _, inst := range l.entries[slot] {
		if inst.Template.Kind == content.KindDisable {
			return true
		}
	}
	return false
}

// Apply attaches a condition instance to the target. Exclusive templates
// replace an existing instance of the same template rather than stacking:
// the survivor keeps the larger magnitude and takes the later application's
// duration.
//
// Postcondition: the target's current stats reflect the new condition set.
func (l *Ledger) Apply(target *Combatant, tpl *content.ConditionTemplate) error {
	inst := &ConditionInstance{Template: tpl, Magnitude: tpl.Magnitude, Remaining: tpl.Duration}
	if tpl.OnApply != "" && l.hooks != nil {
		st, err := l.hooks.Eval(tpl.OnApply, l.hookState(target, inst))
		if err != nil {
			return fmt.Errorf("condition %q on_apply: %w", tpl.ID, err)
		}
		inst.Magnitude = st.Magnitude
		inst.Remaining = st.Remaining
	}
	if inst.Remaining < 1 {
		// A hook can veto its own condition by zeroing the duration.
		return nil
	}

	slot := target.Slot
	if tpl.Exclusive {
		for _, existing := range l.entries[slot] {
			if existing.Template.ID != tpl.ID {
				continue
			}
			if inst.Magnitude > existing.Magnitude {
				existing.Magnitude = inst.Magnitude
			}
			existing.Remaining = inst.Remaining
			l.recompute(target)
			return nil
		}
	}
	l.entries[slot] = append(l.entries[slot], inst)
	l.logger.Debug("condition applied",
		zap.Stringer("target", slot),
		zap.String("condition", tpl.ID),
		zap.Int("magnitude", inst.Magnitude),
		zap.Int("duration", inst.Remaining))
	l.recompute(target)
	return nil
}

// Restore reattaches a condition that survived an earlier encounter, keeping
// its saved magnitude and remaining duration. Hooks do not run again.
func (l *Ledger) Restore(target *Combatant, tpl *content.ConditionTemplate, magnitude, remaining int) {
	if remaining < 1 {
		return
	}
	l.entries[target.Slot] = append(l.entries[target.Slot], &ConditionInstance{
		Template:  tpl,
		Magnitude: magnitude,
		Remaining: remaining,
	})
	l.recompute(target)
}

// Expire removes every instance of the named condition from the target,
// running on_remove hooks.
func (l *Ledger) Expire(target *Combatant, conditionID string) error {
	var survivors []*ConditionInstance
	for _, inst := range l.entries[target.Slot] {
		if inst.Template.ID != conditionID {
			survivors = append(survivors, inst)
			continue
		}
		if err := l.remove(target, inst); err != nil {
			return err
		}
	}
	if survivors == nil {
		delete(l.entries, target.Slot)
	} else {
		l.entries[target.Slot] = survivors
	}
	l.recompute(target)
	return nil
}

// TickResult reports what one end-of-round tick did to one combatant.
type TickResult struct {
	Slot     Slot
	Damage   int
	Healing  int
	Expired  []string
	Defeated bool
}

// Tick advances every condition on the target by one round: over-time
// effects fire, then durations decrement and expired instances are removed.
//
// Postcondition: current stats reflect only the surviving modifiers; a
// combatant defeated by over-time damage has its remaining conditions
// cleared.
func (l *Ledger) Tick(target *Combatant) (TickResult, error) {
	res := TickResult{Slot: target.Slot}
	var survivors []*ConditionInstance
	for _, inst := range l.entries[target.Slot] {
		if res.Defeated {
			// A combatant downed mid-tick loses its remaining conditions
			// without their effects firing.
			if err := l.remove(target, inst); err != nil {
				return res, err
			}
			res.Expired = append(res.Expired, inst.Template.ID)
			continue
		}
		amount := inst.Magnitude
		if inst.Template.OnTick != "" && l.hooks != nil {
			st, err := l.hooks.Eval(inst.Template.OnTick, l.hookState(target, inst))
			if err != nil {
				return res, fmt.Errorf("condition %q on_tick: %w", inst.Template.ID, err)
			}
			amount = st.Magnitude
			inst.Remaining = st.Remaining
		}

		switch inst.Template.Kind {
		case content.KindDamageOverTime:
			res.Damage += amount
			if target.applyDamage(amount) {
				res.Defeated = true
			}
		case content.KindHealOverTime:
			res.Healing += target.applyHealing(amount)
		}

		inst.Remaining--
		if inst.Remaining <= 0 || res.Defeated {
			if err := l.remove(target, inst); err != nil {
				return res, err
			}
			res.Expired = append(res.Expired, inst.Template.ID)
			continue
		}
		survivors = append(survivors, inst)
	}

	if res.Defeated {
		// Defeat clears the whole set, including instances not yet visited.
		for _, inst := range survivors {
			if err := l.remove(target, inst); err != nil {
				return res, err
			}
			res.Expired = append(res.Expired, inst.Template.ID)
		}
		survivors = nil
	}

	if survivors == nil {
		delete(l.entries, target.Slot)
	} else {
		l.entries[target.Slot] = survivors
	}
	l.recompute(target)
	return res, nil
}

// Clear drops every condition on the target, running on_remove hooks.
func (l *Ledger) Clear(target *Combatant) error {
	for _, inst := range l.entries[target.Slot] {
		if err := l.remove(target, inst); err != nil {
			return err
		}
	}
	delete(l.entries, target.Slot)
	l.recompute(target)
	return nil
}

func (l *Ledger) remove(target *Combatant, inst *ConditionInstance) error {
	if inst.Template.OnRemove != "" && l.hooks != nil {
		if _, err := l.hooks.Eval(inst.Template.OnRemove, l.hookState(target, inst)); err != nil {
			return fmt.Errorf("condition %q on_remove: %w", inst.Template.ID, err)
		}
	}
	l.logger.Debug("condition removed",
		zap.Stringer("target", target.Slot),
		zap.String("condition", inst.Template.ID))
	return nil
}

// recompute rebuilds current stats from base values plus active modifiers.
// Speed never drops below 1.
func (l *Ledger) recompute(target *Combatant) {
	target.resetStats()
	for _, inst := range l.entries[target.Slot] {
		if inst.Template.Kind != content.KindStatModifier {
			continue
		}
		switch inst.Template.Stat {
		case content.StatSpeed:
			target.Speed += inst.Magnitude
		case content.StatArmorClass:
			target.ArmorClass += inst.Magnitude
		case content.StatAccuracy:
			target.Accuracy += inst.Magnitude
		case content.StatDamage:
			target.DamageBonus += inst.Magnitude
		}
	}
	if target.Speed < 1 {
		target.Speed = 1
	}
}

func (l *Ledger) hookState(target *Combatant, inst *ConditionInstance) HookState {
	return HookState{
		ConditionID: inst.Template.ID,
		Magnitude:   inst.Magnitude,
		Remaining:   inst.Remaining,
		Round:       l.round(),
		TargetHP:    target.HP,
		TargetMaxHP: target.MaxHP,
	}
}
