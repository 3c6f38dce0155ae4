package encounter

// AutoAction picks an action for the current actor without resolving it.
// Monsters follow their template's strategy; for players it produces the
// simplest legal action, which lets a simulation drive a whole encounter.
//
// Precondition: the encounter is active.
func (e *Encounter) AutoAction() (Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return nil, &InvariantError{Reason: "auto action requested in state " + e.state.String()}
	}
	actor := e.lookup(e.order[e.cursor])
	if actor == nil || !actor.Active() {
		return nil, &InvariantError{Reason: "current actor is not active"}
	}

	targets := e.activeSide(actor.Slot.Side.Opponent())
	if len(targets) == 0 {
		return nil, &InvariantError{Reason: "no opposing combatants remain"}
	}

	strategy := "lowest-hp"
	if actor.Template != nil {
		strategy = actor.Template.Strategy
	}
	return Attack{Target: e.chooseTarget(strategy, targets).Slot}, nil
}

// chooseTarget applies a target-selection strategy to the candidate list.
// Ties resolve to the earliest registration index, keeping the choice
// deterministic for a deterministic dice source.
func (e *Encounter) chooseTarget(strategy string, candidates []*Combatant) *Combatant {
	switch strategy {
	case "highest-threat":
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Threat > best.Threat {
				best = c
			}
		}
		return best
	case "random":
		return candidates[e.roller.Source().Intn(len(candidates))]
	default: // lowest-hp
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.HP < best.HP {
				best = c
			}
		}
		return best
	}
}
