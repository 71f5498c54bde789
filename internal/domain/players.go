package domain

// PlayerRegistry tracks the players currently taking part in a match, in
// join order.
type PlayerRegistry struct {
	order []string
	byID  map[string]Player
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{byID: make(map[string]Player)}
}

// Add registers p. It returns false and refreshes the display name when the
// id is already present.
func (r *PlayerRegistry) Add(p Player) bool {
	if _, ok := r.byID[p.ID]; ok {
		r.byID[p.ID] = p
		return false
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return true
}

// Remove drops the player and reports whether they were registered.
func (r *PlayerRegistry) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *PlayerRegistry) Get(id string) (Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *PlayerRegistry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns the players in join order.
func (r *PlayerRegistry) All() []Player {
	out := make([]Player, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

func (r *PlayerRegistry) Len() int { return len(r.order) }

func (r *PlayerRegistry) Clear() {
	r.order = nil
	clear(r.byID)
}
