package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
	"github.com/emberfall-rpg/emberfall/internal/game/encounter"
)

// HookEngine evaluates condition hook scripts against a single persistent
// sandboxed VM. Each evaluation gets a fresh instruction-count budget and a
// fresh `state` table; nothing a script writes survives into the next call.
//
// HookEngine is safe for concurrent use; evaluations are serialized because
// an LState is single-threaded.
type HookEngine struct {
	mu        sync.Mutex
	state     *lua.LState
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int
}

// NewHookEngine creates a HookEngine.
//
// Precondition: roller and logger must be non-nil; instLimit <= 0 uses
// DefaultInstructionLimit.
func NewHookEngine(roller *dice.Roller, logger *zap.Logger, instLimit int) *HookEngine {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L := newSandboxedState()

	// roll(sides) exposes the engine's dice source so scripted effects stay
	// deterministic under a scripted source.
	L.SetGlobal("roll", L.NewFunction(func(l *lua.LState) int {
		sides := l.CheckInt(1)
		if sides < 2 {
			l.ArgError(1, "sides must be >= 2")
			return 0
		}
		l.Push(lua.LNumber(dice.RollDie(roller.Source(), sides)))
		return 1
	}))

	return &HookEngine{
		state:     L,
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// Close releases the underlying VM.
func (h *HookEngine) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}

// Eval runs source with the hook state bound to the global `state` table
// and reads the possibly-modified magnitude and remaining back out.
//
// The script sees:
//
//	state.condition  (read-only)
//	state.magnitude  (read-write)
//	state.remaining  (read-write)
//	state.round      (read-only)
//	state.hp         (read-only)
//	state.max_hp     (read-only)
//
// Postcondition: Returns the adjusted state, or an error when the script
// fails or exceeds the instruction limit; on error the input state is
// returned unchanged.
func (h *HookEngine) Eval(source string, st encounter.HookState) (encounter.HookState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	L := h.state
	tbl := L.NewTable()
	L.SetField(tbl, "condition", lua.LString(st.ConditionID))
	L.SetField(tbl, "magnitude", lua.LNumber(st.Magnitude))
	L.SetField(tbl, "remaining", lua.LNumber(st.Remaining))
	L.SetField(tbl, "round", lua.LNumber(st.Round))
	L.SetField(tbl, "hp", lua.LNumber(st.TargetHP))
	L.SetField(tbl, "max_hp", lua.LNumber(st.TargetMaxHP))
	L.SetGlobal("state", tbl)

	ctx, cancel := newCountingContext(h.instLimit)
	L.SetContext(ctx)
	defer func() {
		cancel()
		L.RemoveContext()
		L.SetGlobal("state", lua.LNil)
	}()

	if err := L.DoString(source); err != nil {
		h.logger.Warn("condition hook failed",
			zap.String("condition", st.ConditionID),
			zap.Error(err))
		return st, fmt.Errorf("scripting: hook for %q: %w", st.ConditionID, err)
	}

	out := st
	if v, ok := L.GetField(tbl, "magnitude").(lua.LNumber); ok {
		out.Magnitude = int(v)
	}
	if v, ok := L.GetField(tbl, "remaining").(lua.LNumber); ok {
		out.Remaining = int(v)
	}
	return out, nil
}
