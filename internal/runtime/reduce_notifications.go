package runtime

import (
	"context"

	"github.com/watchstate/core/internal/addon/transport"
	"github.com/watchstate/core/internal/ctxcore"
	"github.com/watchstate/core/internal/resource"
	"github.com/watchstate/core/internal/types"
)

func (d *Dispatcher) reducePullNotifications(state State, _ PullNotifications) (State, Effects) {
	return d.probeAddons(state, ctxcore.ExtraLastVideosIDs)
}

func (d *Dispatcher) reducePullCalendar(state State, _ PullCalendar) (State, Effects) {
	return d.probeAddons(state, ctxcore.ExtraCalendarIDs)
}

// probeAddons plans and fetches an AggrRequest batch for extraName against
// every installed addon declaring it, the shared first half of
// PullNotifications and PullCalendar (spec.md §4.8).
func (d *Dispatcher) probeAddons(state State, extraName string) (State, Effects) {
	now := d.env.Now()
	probe := ctxcore.BuildProbe(now, state.Ctx.Library, extraName)
	reqs := resource.Plan(state.Ctx.Profile.Addons, probe)
	if len(reqs) == 0 {
		return state, Effects{}
	}
	effects := Effects{}
	effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
		var metas []types.MetaItem
		for _, req := range reqs {
			resp, err := transport.HTTP{}.Fetch(ctx, d.env, req)
			if err != nil {
				continue
			}
			metas = append(metas, resp.MetasDetailed...)
		}
		return notificationsProbeResult{extraName: extraName, metas: metas}
	}))
	return state, effects
}

// notificationsProbeResult is an internal-only action: it carries both
// PullNotifications and PullCalendar's resolved metas, discriminated by
// extraName, back into the reducer that knows which bucket to fold them
// into.
type notificationsProbeResult struct {
	baseAction
	extraName string
	metas     []types.MetaItem
}

func (d *Dispatcher) reduceNotificationsProbeResult(state State, a notificationsProbeResult) (State, Effects) {
	now := d.env.Now()
	switch a.extraName {
	case ctxcore.ExtraLastVideosIDs:
		state.Ctx.Notifications = ctxcore.ApplyNotifications(now, state.Ctx.Notifications, state.Ctx.DismissedEvents, ctxcore.DefaultRetentionWindow, a.metas)
	case ctxcore.ExtraCalendarIDs:
		entries := ctxcore.BuildCalendar(now, ctxcore.DefaultRetentionWindow, a.metas)
		state.Ctx.Calendar = types.CalendarBucket{UID: state.Ctx.Calendar.UID, Entries: entries}
	default:
		return state, Effects{}
	}
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceDismissNotificationItem(state State, a DismissNotificationItem) (State, Effects) {
	now := d.env.Now()
	next, lastWatched := ctxcore.DismissNotificationItem(state.Ctx.Notifications, a.MetaID, now)
	state.Ctx.Notifications = next

	if item, ok := state.Ctx.Library.Items[a.MetaID]; ok {
		item.State.LastWatched = &lastWatched
		state.Ctx.Library.Merge(map[string]types.LibraryItem{item.ID: item})
	}
	return state, Effects{HasChanged: true}
}
