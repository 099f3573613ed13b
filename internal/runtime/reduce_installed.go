package runtime

import "github.com/watchstate/core/internal/models/installed"

func (d *Dispatcher) reduceLoadInstalled(state State, a LoadInstalled) (State, Effects) {
	model := installed.Load(state.Ctx.Profile, a.Selected)
	state.Installed = &model
	return state, Effects{HasChanged: true}
}
