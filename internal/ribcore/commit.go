package ribcore

import (
	"log/slog"
	"sync"
)

// Allocator is the subset of portalloc.Allocator's interface Commit needs.
// Defined here (rather than imported) so ribcore stays free of a dependency
// on the allocator's concrete package — matching the pack's convention of
// small locally-declared interfaces at the consumer (e.g.
// manager.BGPServer, manager.Fetcher).
type Allocator interface {
	Allocate(key string) (int, error)
	Release(key string)
	GetPort(key string) (int, bool)
	AvailableCount() int
}

// Checkpointer is the optional persistence hook. Save is invoked
// fire-and-forget after a commit publishes state; it never blocks Commit's
// caller and its error is only logged.
type Checkpointer interface {
	Save(state *State)
}

// CommitResult is what Commit returns to its caller (the action queue).
type CommitResult struct {
	Action         Action
	PrevState      *State
	NewState       *State
	Propagations   []Propagation
	PortOperations []PortOp
	RoutesChanged  bool
}

// RIB owns the current state snapshot and the port allocator, and is the
// only component allowed to call Commit. It is not safe to call Commit
// concurrently from multiple goroutines — the action queue (internal/queue)
// is responsible for serializing calls onto a single goroutine.
type RIB struct {
	engine       *Engine
	alloc        Allocator
	log          *slog.Logger
	checkpointer Checkpointer

	mu       sync.RWMutex
	current  *State
	metadata map[string]LocRibEntry
}

func NewRIB(thisNode string, alloc Allocator, initial *State, log *slog.Logger, checkpointer Checkpointer) *RIB {
	if initial == nil {
		initial = NewEmptyState()
	}
	if log == nil {
		log = slog.Default()
	}
	return &RIB{
		engine:       NewEngine(thisNode),
		alloc:        alloc,
		log:          log,
		checkpointer: checkpointer,
		current:      initial,
		metadata:     SelectBestPaths(initial),
	}
}

// Current returns the published state snapshot. Safe to call from any
// goroutine without additional synchronization: the returned pointer is
// immutable once published.
func (r *RIB) Current() *State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Metadata returns the published LocRIB entries.
func (r *RIB) Metadata() map[string]LocRibEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata
}

// Commit runs plan against the currently-published state and, on success,
// executes the derived port operations, stamps ports and lastSent timers,
// computes propagations, and publishes the result. It returns the plan error
// unchanged on failure, leaving state untouched.
func (r *RIB) Commit(action Action) (CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current
	plan := r.engine.Plan(action, prev)
	if !plan.Success {
		r.log.Debug("ribcore: plan rejected action", "action", action.Kind, "error", plan.Error)
		MetricPlanErrorsTotal.WithLabelValues(action.Kind.String()).Inc()
		return CommitResult{}, plan.Error
	}
	MetricCommitsTotal.WithLabelValues(action.Kind.String()).Inc()

	for _, op := range plan.PortOperations {
		switch op.Type {
		case PortOpAllocate:
			if _, err := r.alloc.Allocate(op.Key); err != nil {
				r.log.Warn("ribcore: port allocation failed, route left unstamped", "key", op.Key, "error", err)
			}
		case PortOpRelease:
			r.alloc.Release(op.Key)
		}
	}

	next, _ := stampLocalPorts(plan.NewState, r.alloc)
	next, _ = stampInternalPorts(next, r.alloc)

	propagations := r.engine.ComputePropagations(action, prev, next, r.alloc.GetPort)

	next = stampLastSent(next, propagations, action.At)

	// Route metadata (LocRIB) is recomputed from the fully-stamped state so
	// bestPath.envoyPort always reflects what was actually committed.
	metadata := SelectBestPaths(next)

	routesChanged := RoutesChanged(prev, next)
	if routesChanged {
		MetricRoutesChangedTotal.Inc()
	}
	MetricLocRibEntries.Set(float64(len(metadata)))

	r.current = next
	r.metadata = metadata

	if r.checkpointer != nil {
		go r.checkpointer.Save(next)
	}

	return CommitResult{
		Action:         action,
		PrevState:      prev,
		NewState:       next,
		Propagations:   propagations,
		PortOperations: plan.PortOperations,
		RoutesChanged:  routesChanged,
	}, nil
}

// stampLocalPorts fills in EnvoyPort for local routes that don't have one
// yet, from the allocator's current assignment for their name key. Routes
// that already carry a port (a local route created with an explicit
// EnvoyPort) are left untouched. Returns
// (state, changed) where state reuses s.Local unless a stamp was actually
// applied.
func stampLocalPorts(s *State, alloc Allocator) (*State, bool) {
	changed := false
	out := append([]LocalRoute(nil), s.Local.Items...)
	for i, r := range out {
		if r.EnvoyPort != 0 {
			continue
		}
		port, ok := alloc.GetPort(r.Name)
		if !ok {
			continue
		}
		out[i].EnvoyPort = port
		changed = true
	}
	if !changed {
		return s, false
	}
	return s.withLocal(out), true
}

// stampInternalPorts fills in EnvoyPort for internal routes only when they
// don't already carry one. An internal route's EnvoyPort, once set, is the
// *remote* upstream port reported by the peer that advertised it — it must
// never be overwritten by our local egress allocation (§4.3 step 2).
func stampInternalPorts(s *State, alloc Allocator) (*State, bool) {
	changed := false
	out := append([]InternalRoute(nil), s.Internal.Items...)
	for i, r := range out {
		if r.EnvoyPort != 0 {
			continue
		}
		port, ok := alloc.GetPort(r.EgressKey())
		if !ok {
			continue
		}
		out[i].EnvoyPort = port
		changed = true
	}
	if !changed {
		return s, false
	}
	return s.withInternal(out), true
}

// stampLastSent records lastSent on every peer that received an update or
// keepalive propagation in this commit (§4.3 step 4).
func stampLastSent(s *State, props []Propagation, at int64) *State {
	sent := make(map[string]bool)
	for _, p := range props {
		if p.Kind == PropagationUpdate || p.Kind == PropagationKeepalive {
			sent[p.Peer.Name] = true
		}
	}
	if len(sent) == 0 {
		return s
	}

	changed := false
	items := append([]PeerRecord(nil), s.Peers.Items...)
	for i, p := range items {
		if sent[p.Name] {
			ts := at
			items[i].LastSent = &ts
			changed = true
		}
	}
	if !changed {
		return s
	}
	return s.withPeers(items)
}
