package parcel

import "sync"

// Registry is the in-memory projection of the parcel records visible to the
// current view: all parcels for an admin, the assigned jobs for an agent, the
// booked parcels for a customer. It is seeded once per view mount and then
// incrementally patched by realtime events.
//
// Patches apply last-write-wins with no sequence or timestamp guard, so a
// late-arriving stale event overwrites a newer state. That mirrors the
// observed contract; it is a latent ordering gap, not a guarantee.
//
// Realtime callbacks patch the registry from outside the owning view's call
// graph, so all access is guarded by a mutex.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Parcel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Parcel)}
}

// Seed replaces the registry contents with the fetched collection,
// preserving the collection's order for rendering.
func (r *Registry) Seed(parcels []Parcel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = r.order[:0]
	r.byID = make(map[string]*Parcel, len(parcels))
	for i := range parcels {
		p := parcels[i]
		if _, ok := r.byID[p.ID]; ok {
			continue
		}
		r.order = append(r.order, p.ID)
		r.byID[p.ID] = &p
	}
}

// ApplyStatus replaces the status of the identified parcel. Unknown parcels
// are a no-op. Applying the same event twice yields the same state.
func (r *Registry) ApplyStatus(id string, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.Status = status
	return true
}

// ApplyLocation replaces the live location of the identified parcel with the
// most recent coordinates. Unknown parcels are a no-op.
func (r *Registry) ApplyLocation(id string, lat, lng float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.LiveLocation = &Location{Lat: lat, Lng: lng}
	return true
}

// AssignAgent applies the local confirmation patch after an assign command:
// status moves to assigned and the agent reference is attached.
func (r *Registry) AssignAgent(id string, agent AgentRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.Status = StatusAssigned
	p.AssignedAgent = &agent
	return true
}

// Get returns a copy of the identified parcel.
func (r *Registry) Get(id string) (Parcel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return Parcel{}, false
	}
	return *p, true
}

// Snapshot returns copies of all parcels in seed order.
func (r *Registry) Snapshot() []Parcel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Parcel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Len returns the number of parcels currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
