package relay

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/neilotoole/slogt"
)

// TestRegistryProperties validates registry membership against a plain map
// model under randomized operation sequences.
func TestRegistryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	hub := NewHub(slogt.New(t), Config{})

	properties.Property("membership tracks a map model", prop.ForAll(
		func(ops []int8) bool {
			reg := NewRegistry()
			model := make(map[string]*Peer)
			var known []*Peer

			for _, op := range ops {
				if op%2 == 0 || len(known) == 0 {
					p := newPeer(hub, newScriptedConn())
					reg.Register(p)
					model[p.ID()] = p
					known = append(known, p)
				} else {
					victim := known[int(op)%len(known)]
					removed := reg.Unregister(victim.ID())
					_, inModel := model[victim.ID()]
					if removed != inModel {
						return false
					}
					delete(model, victim.ID())
				}

				if reg.Len() != len(model) {
					return false
				}
			}

			snap := reg.Snapshot()
			if len(snap) != len(model) {
				return false
			}
			for _, p := range snap {
				if _, ok := model[p.ID()]; !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int8Range(0, 125)),
	))

	properties.Property("concurrent registration is safe and complete", prop.ForAll(
		func(n int) bool {
			reg := NewRegistry()
			peers := make([]*Peer, n)
			for i := range peers {
				peers[i] = newPeer(hub, newScriptedConn())
			}

			var wg sync.WaitGroup
			for _, p := range peers {
				wg.Add(1)
				go func(p *Peer) {
					defer wg.Done()
					reg.Register(p)
				}(p)
			}
			wg.Wait()

			if reg.Len() != n {
				return false
			}

			// Unregister every peer twice, concurrently. Idempotency
			// means exactly n removals report true overall.
			results := make(chan bool, 2*n)
			for _, p := range peers {
				for i := 0; i < 2; i++ {
					wg.Add(1)
					go func(id string) {
						defer wg.Done()
						results <- reg.Unregister(id)
					}(p.ID())
				}
			}
			wg.Wait()
			close(results)

			removed := 0
			for ok := range results {
				if ok {
					removed++
				}
			}
			return removed == n && reg.Len() == 0
		},
		gen.IntRange(1, 32),
	))

	properties.TestingRun(t)
}
