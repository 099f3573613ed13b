package runtime

import "github.com/watchstate/core/internal/models/library"

func (d *Dispatcher) reduceLoadLibrary(state State, a LoadLibrary) (State, Effects) {
	model := library.Load(state.Ctx.Library, a.Selected)
	state.Library = &model
	return state, Effects{HasChanged: true}
}
