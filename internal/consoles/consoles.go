// Package consoles keeps the dashboard state of every open browser console
// and evicts the ones that went idle.
package consoles

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/shopconsole/internal/dashboard"
	"github.com/patric-chuzhbe/shopconsole/internal/logger"
)

type entry struct {
	state    *dashboard.State
	lastSeen time.Time
}

type Registry struct {
	mu            sync.Mutex
	entries       map[string]*entry
	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

func New(idleTTL, sweepInterval time.Duration) *Registry {
	return &Registry{
		entries:       map[string]*entry{},
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Get returns the state of console id, creating it on first use.
func (r *Registry) Get(id string) *dashboard.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &entry{state: dashboard.NewState()}
		r.entries[id] = e
	}
	e.lastSeen = r.now()

	return e.state
}

// Drop tears down and forgets console id.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.state.Teardown()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Sweep evicts every console not seen since idleTTL before now and returns
// how many went.
func (r *Registry) Sweep(now time.Time) int {
	var evicted []*dashboard.State

	r.mu.Lock()
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) >= r.idleTTL {
			evicted = append(evicted, e.state)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, state := range evicted {
		state.Teardown()
	}

	return len(evicted)
}

// Run sweeps on every tick until ctx is done. Remaining consoles are torn
// down on the way out.
func (r *Registry) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.Sweep(time.Unix(1<<62, 0))
				return
			case <-ticker.C:
				if n := r.Sweep(r.now()); n > 0 {
					logger.Log.Infof("evicted %d idle consoles", n)
				}
			}
		}
	}()
}
