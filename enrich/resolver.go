/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package enrich

import "github.com/Seednode/pokenator/pokeapi"

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

// Slot is an independent display that can show one resolved detail, such as
// the hover tooltip or the guess panel.
type Slot int

const (
	SlotHover Slot = iota
	SlotGuess
)

type Display struct {
	Key    string           `json:"key,omitempty"`
	Status Status           `json:"status"`
	Detail *pokeapi.Pokemon `json:"detail,omitempty"`
}

// Request is a lookup the caller must perform and report back through
// Complete. Gen is the generation current when it was issued.
type Request struct {
	Key string
	Gen uint64
}

type Completion struct {
	Key    string
	Gen    uint64
	Detail *pokeapi.Pokemon
	Err    error
}

type slotState struct {
	gen     uint64
	display Display
}

// Resolver decides, for each selection, whether a cached outcome can be shown
// at once or a lookup has to be issued, and whether a finished lookup is still
// wanted. Every selection takes a new generation from one monotonic counter;
// a completion only updates a slot whose generation has not moved on.
//
// Resolver is not safe for concurrent use; it belongs to one event loop.
type Resolver struct {
	cache *Cache
	seq   uint64
	slots map[Slot]*slotState

	// key -> slot -> generation waiting on the in-flight lookup
	inflight map[string]map[Slot]uint64
}

func NewResolver(cache *Cache) *Resolver {
	return &Resolver{
		cache:    cache,
		slots:    make(map[Slot]*slotState),
		inflight: make(map[string]map[Slot]uint64),
	}
}

func (r *Resolver) slot(s Slot) *slotState {
	st, ok := r.slots[s]
	if !ok {
		st = &slotState{display: Display{Status: StatusIdle}}
		r.slots[s] = st
	}
	return st
}

// Select points slot s at key. The returned display is what to show right
// now: the cached outcome, or a loading placeholder. A non-nil Request means
// no lookup for key is in flight yet and one must be started.
func (r *Resolver) Select(s Slot, key string) (Display, *Request) {
	r.seq++
	st := r.slot(s)
	st.gen = r.seq

	if p, ok := r.cache.Get(key); ok {
		st.display = resolved(key, p)
		return st.display, nil
	}

	st.display = Display{Key: key, Status: StatusLoading}

	waiting, busy := r.inflight[key]
	if !busy {
		waiting = make(map[Slot]uint64)
		r.inflight[key] = waiting
	}
	waiting[s] = st.gen

	if busy {
		return st.display, nil
	}

	return st.display, &Request{Key: key, Gen: st.gen}
}

// Clear drops the selection of slot s; pending lookups no longer display there.
func (r *Resolver) Clear(s Slot) {
	r.seq++
	st := r.slot(s)
	st.gen = r.seq
	st.display = Display{Status: StatusIdle}
}

// Complete caches the outcome of a lookup (errors become a not-found marker)
// and returns the slots whose display it updated. A completion superseded by
// a newer selection updates no slot.
func (r *Resolver) Complete(c Completion) []Slot {
	detail := c.Detail
	if c.Err != nil {
		detail = nil
	}
	r.cache.Put(c.Key, detail)

	waiting := r.inflight[c.Key]
	delete(r.inflight, c.Key)

	var updated []Slot
	for _, s := range []Slot{SlotHover, SlotGuess} {
		gen, ok := waiting[s]
		if !ok {
			continue
		}
		st := r.slot(s)
		if st.gen != gen {
			continue
		}
		st.display = resolved(c.Key, detail)
		updated = append(updated, s)
	}

	return updated
}

func (r *Resolver) Current(s Slot) Display {
	return r.slot(s).display
}

// Generation is the newest generation handed out.
func (r *Resolver) Generation() uint64 {
	return r.seq
}

func (r *Resolver) Pending() int {
	return len(r.inflight)
}

func resolved(key string, p *pokeapi.Pokemon) Display {
	if p == nil {
		return Display{Key: key, Status: StatusNotFound}
	}
	return Display{Key: key, Status: StatusFound, Detail: p}
}
