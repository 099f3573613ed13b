package runtime

import "context"

// EffectKind discriminates Effect's two shapes (spec.md §4.9 "if Msg(m) —
// re-enter with m; if Future(f) — submit to concurrent or sequential
// executor; upon resolution, the future yields the next Msg").
type EffectKind string

const (
	EffectMsg    EffectKind = "msg"
	EffectFuture EffectKind = "future"
)

// Effect is one DAG edge a reduce step emits. A Msg effect re-enters the
// dispatcher synchronously with the next action; a Future effect is handed
// to env.Scheduler and re-enters once it resolves. Queue selects
// ExecSequential(Queue) over ExecConcurrent when non-empty — durability
// -critical effects like storage writes need per-key FIFO (spec.md §5).
type Effect struct {
	Kind   EffectKind
	Msg    Action
	Future func(ctx context.Context) Action
	Queue  string
}

// Effects is one reduce step's output (spec.md §4.9 "Effects{ has_changed,
// effects }").
type Effects struct {
	HasChanged bool
	List       []Effect
}

func msgEffect(a Action) Effect { return Effect{Kind: EffectMsg, Msg: a} }

func futureEffect(queue string, f func(ctx context.Context) Action) Effect {
	return Effect{Kind: EffectFuture, Future: f, Queue: queue}
}
