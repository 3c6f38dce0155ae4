package encounter

import (
	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

// minHitThreshold is the floor of the to-hit roll: a natural 1 always misses
// but nothing is ever harder than needing a 2.
const minHitThreshold = 2

// resolve dispatches an action after full validation. Every path validates
// everything before mutating anything: a returned RejectionError guarantees
// untouched state.
func (e *Encounter) resolve(actor *Combatant, action Action) (Outcome, error) {
	switch a := action.(type) {
	case Attack:
		return e.resolveAttack(actor, a)
	case Defend:
		return e.resolveDefend(actor)
	case Cast:
		return e.resolveCast(actor, a)
	case UseItem:
		return e.resolveUseItem(actor, a)
	case Flee:
		return e.resolveFlee(actor)
	default:
		return Outcome{}, &InvariantError{Reason: "unknown action type"}
	}
}

// hitThreshold is the to-hit roll a d20 must meet or beat.
func hitThreshold(attacker, target *Combatant) int {
	t := 10 + target.ArmorClass - attacker.Accuracy
	if t < minHitThreshold {
		t = minHitThreshold
	}
	return t
}

func (e *Encounter) resolveAttack(actor *Combatant, a Attack) (Outcome, error) {
	if a.Target.Side != actor.Slot.Side.Opponent() {
		return Outcome{}, reject(RejectInvalidTarget, "attack must target the opposing side")
	}
	target := e.lookup(a.Target)
	if target == nil {
		return Outcome{}, reject(RejectInvalidTarget, "no combatant in slot %s", a.Target)
	}
	if !target.Active() {
		return Outcome{}, reject(RejectInvalidTarget, "%s is out of the fight", target.Name)
	}

	outcome := Outcome{Action: Attack{}.kind()}
	for swing := 0; swing < actor.AttacksPerTurn && target.Active(); swing++ {
		atk := e.chooseAttack(actor, swing)
		threshold := hitThreshold(actor, target)
		roll := dice.RollDie(e.roller.Source(), 20)
		if roll < threshold {
			outcome.Events = append(outcome.Events, Event{
				Kind: EventMiss, Target: target.Slot, Roll: roll, Threshold: threshold,
			})
			continue
		}
		outcome.Events = append(outcome.Events, Event{
			Kind: EventHit, Target: target.Slot, Roll: roll, Threshold: threshold,
		})

		damage := e.roller.Roll(atk.DamageExpr()).Total() + actor.DamageBonus
		if damage < 1 {
			damage = 1
		}
		actor.Threat += damage
		defeated := target.applyDamage(damage)
		outcome.Events = append(outcome.Events, Event{
			Kind: EventDamage, Target: target.Slot, Amount: damage,
		})

		if defeated {
			e.ledger.Clear(target) //nolint:errcheck // defeat clears unconditionally
			outcome.Events = append(outcome.Events, Event{Kind: EventDefeat, Target: target.Slot})
			break
		}
		if atk.Condition != "" {
			if err := e.applyCondition(target, atk.Condition, &outcome); err != nil {
				return Outcome{}, err
			}
		}
	}
	return outcome, nil
}

// chooseAttack picks the attack definition for one swing. Monsters with a
// special threshold roll percentile to prefer a rider attack; everyone else
// cycles through the attack list.
func (e *Encounter) chooseAttack(actor *Combatant, swing int) *content.AttackDef {
	if actor.Template != nil && actor.Template.SpecialThreshold > 0 {
		if e.roller.Source().Intn(100) < actor.Template.SpecialThreshold {
			for i := range actor.Attacks {
				if actor.Attacks[i].Condition != "" {
					return &actor.Attacks[i]
				}
			}
		}
	}
	return &actor.Attacks[swing%len(actor.Attacks)]
}

func (e *Encounter) resolveDefend(actor *Combatant) (Outcome, error) {
	if err := e.ledger.Apply(actor, e.defendTpl); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Action: Defend{}.kind(),
		Events: []Event{{Kind: EventDefend, Target: actor.Slot, Amount: e.opts.DefendACBonus}},
	}, nil
}

func (e *Encounter) resolveCast(actor *Combatant, a Cast) (Outcome, error) {
	if actor.Character == nil {
		return Outcome{}, reject(RejectInvalidActor, "monsters cannot cast spells")
	}
	spell, ok := e.db.Spells[a.SpellID]
	if !ok {
		return Outcome{}, reject(RejectUnknownReference, "no spell %q", a.SpellID)
	}
	ch := actor.Character
	if !ch.Knows(spell.ID) {
		return Outcome{}, reject(RejectIneligibleCaster, "%s has not learned %s", ch.Name, spell.Name)
	}
	needed, canCast := ch.Class.RequiredLevel(spell.School, spell.Level)
	if !canCast {
		return Outcome{}, reject(RejectIneligibleCaster, "%s cannot cast %s spells", ch.Class, spell.School)
	}
	if actor.Level < needed {
		return Outcome{}, reject(RejectIneligibleCaster,
			"%s needs level %d to cast %s, is level %d", ch.Name, needed, spell.Name, actor.Level)
	}
	if actor.SP < spell.SPCost {
		return Outcome{}, reject(RejectInsufficientResource,
			"%s needs %d SP, has %d", spell.Name, spell.SPCost, actor.SP)
	}
	if e.party.Gems < spell.GemCost {
		return Outcome{}, reject(RejectInsufficientResource,
			"%s needs %d gems, party has %d", spell.Name, spell.GemCost, e.party.Gems)
	}
	if spell.Context != content.ContextAny && spell.Context != content.ContextCombat {
		return Outcome{}, reject(RejectWrongContext, "%s cannot be cast in combat", spell.Name)
	}
	targets, err := e.effectTargets(actor, spell.Target, a.Target)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Action: Cast{}.kind()}
	if err := e.applyEffect(actor, &spell.Effect, targets, &outcome); err != nil {
		return Outcome{}, err
	}
	// Costs are charged only once the effect has landed; an errored cast
	// consumes nothing.
	actor.SP -= spell.SPCost
	e.party.Gems -= spell.GemCost
	return outcome, nil
}

func (e *Encounter) resolveUseItem(actor *Combatant, a UseItem) (Outcome, error) {
	if actor.Character == nil {
		return Outcome{}, reject(RejectInvalidActor, "monsters cannot use items")
	}
	tpl, ok := e.db.Items[a.ItemID]
	if !ok {
		return Outcome{}, reject(RejectUnknownReference, "no item %q", a.ItemID)
	}
	ch := actor.Character
	idx := ch.FindItem(tpl.ID)
	if idx < 0 {
		return Outcome{}, reject(RejectInsufficientResource, "%s does not carry %s", ch.Name, tpl.Name)
	}
	if ch.Inventory[idx].ChargesLeft < 1 {
		return Outcome{}, reject(RejectInsufficientResource, "%s is out of charges", tpl.Name)
	}
	if tpl.Context != content.ContextAny && tpl.Context != content.ContextCombat {
		return Outcome{}, reject(RejectWrongContext, "%s cannot be used in combat", tpl.Name)
	}
	targets, err := e.effectTargets(actor, tpl.Target, a.Target)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Action: UseItem{}.kind()}
	if err := e.applyEffect(actor, &tpl.Effect, targets, &outcome); err != nil {
		return Outcome{}, err
	}
	// The charge is spent only once the effect has landed.
	if tpl.Consumable() {
		ch.RemoveItem(idx)
	} else {
		ch.Inventory[idx].ChargesLeft--
	}
	return outcome, nil
}

func (e *Encounter) resolveFlee(actor *Combatant) (Outcome, error) {
	fastest := 0
	for _, c := range e.activeSide(actor.Slot.Side.Opponent()) {
		if c.Speed > fastest {
			fastest = c.Speed
		}
	}
	if actor.Speed < fastest+e.opts.FleeSpeedMargin {
		return Outcome{
			Action: Flee{}.kind(),
			Events: []Event{{Kind: EventFleeFail, Target: actor.Slot}},
		}, nil
	}

	if actor.IsPlayer() {
		// The party escapes as a unit.
		for _, p := range e.players {
			if p.Active() {
				p.Status = StatusFled
				e.ledger.Clear(p) //nolint:errcheck // escape clears unconditionally
			}
		}
	} else {
		actor.Status = StatusFled
		e.ledger.Clear(actor) //nolint:errcheck
	}
	return Outcome{
		Action: Flee{}.kind(),
		Events: []Event{{Kind: EventFled, Target: actor.Slot}},
	}, nil
}

// effectTargets resolves a target shape to concrete combatants, validating
// before any mutation.
func (e *Encounter) effectTargets(actor *Combatant, shape content.TargetShape, chosen Slot) ([]*Combatant, error) {
	switch shape {
	case content.TargetSelf:
		return []*Combatant{actor}, nil
	case content.TargetEnemyGroup:
		targets := e.activeSide(actor.Slot.Side.Opponent())
		if len(targets) == 0 {
			return nil, reject(RejectInvalidTarget, "no enemies remain")
		}
		return targets, nil
	case content.TargetEnemy:
		if chosen.Side != actor.Slot.Side.Opponent() {
			return nil, reject(RejectInvalidTarget, "effect must target the opposing side")
		}
	case content.TargetAlly:
		if chosen.Side != actor.Slot.Side {
			return nil, reject(RejectInvalidTarget, "effect must target the actor's side")
		}
	}
	target := e.lookup(chosen)
	if target == nil {
		return nil, reject(RejectInvalidTarget, "no combatant in slot %s", chosen)
	}
	if !target.Active() {
		return nil, reject(RejectInvalidTarget, "%s is out of the fight", target.Name)
	}
	return []*Combatant{target}, nil
}

// applyEffect lands a spell or item effect on each target, appending events.
func (e *Encounter) applyEffect(actor *Combatant, eff *content.Effect, targets []*Combatant, outcome *Outcome) error {
	for _, target := range targets {
		switch eff.Kind {
		case content.EffectDamage:
			damage := e.roller.Roll(eff.AmountExpr()).Total()
			if damage < 1 {
				damage = 1
			}
			actor.Threat += damage
			defeated := target.applyDamage(damage)
			outcome.Events = append(outcome.Events, Event{
				Kind: EventDamage, Target: target.Slot, Amount: damage,
			})
			if defeated {
				e.ledger.Clear(target) //nolint:errcheck
				outcome.Events = append(outcome.Events, Event{Kind: EventDefeat, Target: target.Slot})
				continue
			}
			if eff.Condition != "" {
				if err := e.applyCondition(target, eff.Condition, outcome); err != nil {
					return err
				}
			}
		case content.EffectHeal:
			healed := target.applyHealing(e.roller.Roll(eff.AmountExpr()).Total())
			outcome.Events = append(outcome.Events, Event{
				Kind: EventHeal, Target: target.Slot, Amount: healed,
			})
		case content.EffectCondition:
			if err := e.applyCondition(target, eff.Condition, outcome); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encounter) applyCondition(target *Combatant, conditionID string, outcome *Outcome) error {
	tpl, ok := e.db.Conditions[conditionID]
	if !ok {
		// Content loading resolves all references; a miss here is a bug.
		return &InvariantError{Reason: "unresolved condition " + conditionID}
	}
	if err := e.ledger.Apply(target, tpl); err != nil {
		return err
	}
	outcome.Events = append(outcome.Events, Event{
		Kind: EventCondition, Target: target.Slot, ConditionID: tpl.ID,
	})
	return nil
}
