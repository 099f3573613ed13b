package runtime

import (
	"context"
	"sync"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/log"
	"github.com/watchstate/core/internal/types"
)

// NewState is the diff broadcast every Dispatch that changes state emits
// (spec.md §4.9 "NewState{ state, fields }"): fields names the top-level
// State members whose serialised value differs from the prior snapshot.
type NewState struct {
	State  State
	Fields []string
}

// Subscription is a live NewState feed. Grounded on
// internal/pipeline/bus/memory_bus.go's memSub: a per-subscriber buffered
// channel, removed from the registry and closed on Close.
type Subscription struct {
	ch     chan NewState
	cancel func()
}

// C returns the channel NewState broadcasts arrive on. It is closed when
// the subscription is closed.
func (s *Subscription) C() <-chan NewState { return s.ch }

// Close stops delivery and releases the subscriber's channel.
func (s *Subscription) Close() { s.cancel() }

// Dispatcher owns the root State exclusively (spec.md §5): Dispatch is the
// only way to mutate it, so a reader through State() or Subscribe() always
// sees a complete snapshot, never a partially-applied one.
type Dispatcher struct {
	env env.Env

	mu    sync.RWMutex
	state State

	subMu sync.Mutex
	subs  map[*Subscription]struct{}
}

// NewDispatcher builds a dispatcher seeded with the anonymous starting
// context (spec.md §4.4 "New"). Callers typically follow construction with
// Dispatch(ctx, Init{}) to run storage migration and restore a prior
// session.
func NewDispatcher(e env.Env, officialAddons []types.Descriptor) *Dispatcher {
	return &Dispatcher{
		env:   e,
		state: New(officialAddons),
		subs:  map[*Subscription]struct{}{},
	}
}

// State returns the current root state snapshot.
func (d *Dispatcher) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Subscribe registers for NewState broadcasts. The returned subscription
// must be closed when the caller is done watching.
func (d *Dispatcher) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan NewState, 16)}
	sub.cancel = func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		if _, ok := d.subs[sub]; ok {
			delete(d.subs, sub)
			close(sub.ch)
		}
	}
	d.subMu.Lock()
	d.subs[sub] = struct{}{}
	d.subMu.Unlock()
	return sub
}

func (d *Dispatcher) broadcast(ns NewState) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for sub := range d.subs {
		select {
		case sub.ch <- ns:
		default:
			broadcastDropTotal.Inc()
			log.WithComponent("runtime").Warn().
				Strs("fields", ns.Fields).
				Msg("dropped NewState broadcast: subscriber channel full")
		}
	}
}

// Dispatch applies action to the current state, broadcasts the resulting
// NewState if anything changed, and executes the reduce step's effects
// (spec.md §4.9 "dispatch(action) -> reduce -> Effects -> broadcast ->
// execute"). Msg effects re-enter synchronously on the calling goroutine;
// Future effects are hewn off onto env.Scheduler and re-enter once resolved.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) {
	ctx, _ = log.EnsureCorrelationID(ctx)
	name := actionName(action)
	start := d.env.Now()

	d.mu.Lock()
	prev := d.state
	next, effects := d.reduce(ctx, prev, action)
	if effects.HasChanged {
		d.state = next
	}
	d.mu.Unlock()

	actionsTotal.WithLabelValues(name).Inc()
	reducerLatency.WithLabelValues(name).Observe(d.env.Now().Sub(start).Seconds())

	log.WithContext(ctx, log.WithComponent("runtime")).Debug().
		Str(log.FieldAction, name).
		Bool(log.FieldChanged, effects.HasChanged).
		Msg("dispatch")

	if effects.HasChanged {
		d.broadcast(NewState{State: next, Fields: fieldsChanged(prev, next)})
	}
	for _, effect := range effects.List {
		d.runEffect(ctx, effect)
	}
}

func (d *Dispatcher) runEffect(ctx context.Context, effect Effect) {
	switch effect.Kind {
	case EffectMsg:
		d.Dispatch(ctx, effect.Msg)
	case EffectFuture:
		future := effect.Future
		queueDepth.Inc()
		run := func(ctx context.Context) {
			defer queueDepth.Dec()
			next := future(ctx)
			if next == nil {
				return
			}
			d.Dispatch(ctx, next)
		}
		if effect.Queue == "" {
			d.env.ExecConcurrent(run)
		} else {
			d.env.ExecSequential(effect.Queue, run)
		}
	}
}

// reduce type-switches over every Action the dispatcher understands,
// mirroring the host's enum match (spec.md §4.9). An action with no case
// here is a no-op: state passes through unchanged and no effects fire.
// ctx carries the correlation ID Dispatch attached, for the unhandled-action
// warning below.
func (d *Dispatcher) reduce(ctx context.Context, state State, action Action) (State, Effects) {
	switch a := action.(type) {

	case Init:
		return d.reduceInit(state, a)
	case Login:
		return d.reduceLogin(state, a)
	case AuthResolved:
		return d.reduceAuthResolved(state, a)
	case Logout:
		return d.reduceLogout(state, a)
	case SyncLibrary:
		return d.reduceSyncLibrary(state, a)
	case LibrarySynced:
		return d.reduceLibrarySynced(state, a)

	case LoadCatalog:
		return d.reduceLoadCatalog(state, a)
	case CatalogResourceResult:
		return d.reduceCatalogResourceResult(state, a)
	case LoadNextCatalogPage:
		return d.reduceLoadNextCatalogPage(state, a)

	case LoadLibrary:
		return d.reduceLoadLibrary(state, a)

	case LoadDetails:
		return d.reduceLoadDetails(state, a)
	case DetailsMetaResult:
		return d.reduceDetailsMetaResult(state, a)
	case DetailsStreamResult:
		return d.reduceDetailsStreamResult(state, a)

	case LoadInstalled:
		return d.reduceLoadInstalled(state, a)

	case InstallAddon:
		return d.reduceInstallAddon(state, a)
	case addonInstallManifestFetched:
		return d.reduceAddonInstallManifestFetched(state, a)
	case RemoveAddon:
		return d.reduceRemoveAddon(state, a)
	case UpgradeAddon:
		return d.reduceUpgradeAddon(state, a)
	case addonUpgradeManifestFetched:
		return d.reduceAddonUpgradeManifestFetched(state, a)

	case PullNotifications:
		return d.reducePullNotifications(state, a)
	case PullCalendar:
		return d.reducePullCalendar(state, a)
	case notificationsProbeResult:
		return d.reduceNotificationsProbeResult(state, a)
	case DismissNotificationItem:
		return d.reduceDismissNotificationItem(state, a)

	case LoadStreamServer:
		return d.reduceLoadStreamServer(state, a)
	case StreamServerSettingsResult:
		return d.reduceStreamServerSettingsResult(state, a)
	case remoteURLResolved:
		return d.reduceRemoteURLResolved(state, a)
	case StreamServerCastingResult:
		return d.reduceStreamServerCastingResult(state, a)
	case StreamServerNetworkInfoResult:
		return d.reduceStreamServerNetworkInfoResult(state, a)
	case StreamServerDeviceInfoResult:
		return d.reduceStreamServerDeviceInfoResult(state, a)
	case GetStatistics:
		return d.reduceGetStatistics(state, a)
	case StatisticsResult:
		return d.reduceStatisticsResult(state, a)
	case CreateTorrent:
		return d.reduceCreateTorrent(state, a)
	case TorrentCreated:
		return d.reduceTorrentCreated(state, a)

	case LoadPlayer:
		return d.reduceLoadPlayer(state, a)
	case PlayerTimeChanged:
		return d.reducePlayerTimeChanged(state, a)
	case PlayerSeek:
		return d.reducePlayerSeek(state, a)
	case PlayerPausedChanged:
		return d.reducePlayerPausedChanged(state, a)
	case PlayerEnded:
		return d.reducePlayerEnded(state, a)
	case PlayerUnload:
		return d.reducePlayerUnload(state, a)
	case PlayerNextVideo:
		return d.reducePlayerNextVideo(state, a)

	default:
		log.WithContext(ctx, log.WithComponent("runtime")).Warn().
			Str(log.FieldAction, actionName(action)).
			Msg("unhandled action")
		return state, Effects{}
	}
}
