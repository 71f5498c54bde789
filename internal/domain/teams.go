package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrNameConflict    = errors.New("team name already taken")
	ErrInvalidTeamName = errors.New("team name is empty")
	ErrTeamFull        = errors.New("team is full")
	ErrUnknownTeam     = errors.New("team not found")
)

// Team is a named, colored group of players sharing one ledger.
type Team struct {
	name    string
	color   Color
	members []Player
	ledger  *Ledger
}

func (t *Team) Name() string    { return t.name }
func (t *Team) Color() Color    { return t.color }
func (t *Team) Ledger() *Ledger { return t.ledger }
func (t *Team) Size() int       { return len(t.members) }

// Members returns a copy of the member list in join order.
func (t *Team) Members() []Player {
	return append([]Player(nil), t.members...)
}

func (t *Team) HasMember(playerID string) bool {
	return t.indexOf(playerID) >= 0
}

func (t *Team) indexOf(playerID string) int {
	for i, m := range t.members {
		if m.ID == playerID {
			return i
		}
	}
	return -1
}

// TeamRegistry owns every team of a match and the player→team index. All
// methods keep the member lists and the index in agreement.
type TeamRegistry struct {
	rng        *rand.Rand
	maxSize    int
	teams      []*Team
	byName     map[string]*Team
	byColor    map[Color]*Team
	playerTeam map[string]*Team
}

// NewTeamRegistry constructs a registry with the provided rng or a
// time-seeded default.
func NewTeamRegistry(rng *rand.Rand, maxSize int) *TeamRegistry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxSize < 1 {
		maxSize = 1
	}
	return &TeamRegistry{
		rng:        rng,
		maxSize:    maxSize,
		byName:     make(map[string]*Team),
		byColor:    make(map[Color]*Team),
		playerTeam: make(map[string]*Team),
	}
}

func (r *TeamRegistry) MaxTeamSize() int { return r.maxSize }

// SetMaxTeamSize changes the capacity for future assignments. Teams already
// above the new size keep their members.
func (r *TeamRegistry) SetMaxTeamSize(n int) {
	if n < 1 {
		n = 1
	}
	r.maxSize = n
}

// Create registers an empty team with a fresh unique color.
func (r *TeamRegistry) Create(name string) (*Team, error) {
	if name == "" {
		return nil, ErrInvalidTeamName
	}
	if _, taken := r.byName[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrNameConflict, name)
	}
	color, err := pickColor(r.rng, r.byColor)
	if err != nil {
		return nil, err
	}
	t := &Team{name: name, color: color, ledger: NewLedger()}
	r.teams = append(r.teams, t)
	r.byName[name] = t
	r.byColor[color] = t
	return t, nil
}

// Rename changes a team's name under the same uniqueness rule as Create.
func (r *TeamRegistry) Rename(t *Team, name string) error {
	if !r.owns(t) {
		return ErrUnknownTeam
	}
	if name == "" {
		return ErrInvalidTeamName
	}
	if name == t.name {
		return nil
	}
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("%w: %s", ErrNameConflict, name)
	}
	delete(r.byName, t.name)
	t.name = name
	r.byName[name] = t
	return nil
}

// Assign moves p onto t, leaving any previous team first. The capacity check
// happens before anything changes so a failed call leaves p where they were.
// A previous team left empty is deleted.
func (r *TeamRegistry) Assign(p Player, t *Team) error {
	if !r.owns(t) {
		return ErrUnknownTeam
	}
	if current := r.playerTeam[p.ID]; current == t {
		return nil
	}
	if t.Size()+1 > r.maxSize {
		return fmt.Errorf("%w: %s has %d of %d", ErrTeamFull, t.name, t.Size(), r.maxSize)
	}
	r.Remove(p.ID)
	t.members = append(t.members, p)
	r.playerTeam[p.ID] = t
	return nil
}

// Remove detaches the player from their team and deletes the team when it
// becomes empty. It returns the team the player left, if any.
func (r *TeamRegistry) Remove(playerID string) (*Team, bool) {
	t, ok := r.playerTeam[playerID]
	if !ok {
		return nil, false
	}
	delete(r.playerTeam, playerID)
	if i := t.indexOf(playerID); i >= 0 {
		t.members = append(t.members[:i], t.members[i+1:]...)
	}
	if len(t.members) == 0 {
		r.deleteTeam(t)
	}
	return t, true
}

// TeamOf returns the team the player belongs to.
func (r *TeamRegistry) TeamOf(playerID string) (*Team, bool) {
	t, ok := r.playerTeam[playerID]
	return t, ok
}

// ByName returns the team with exactly this name.
func (r *TeamRegistry) ByName(name string) (*Team, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Next returns the team after t in creation order, wrapping around. A team
// not in the registry yields the first team.
func (r *TeamRegistry) Next(t *Team) (*Team, bool) {
	return r.step(t, 1)
}

// Previous returns the team before t in creation order, wrapping around.
func (r *TeamRegistry) Previous(t *Team) (*Team, bool) {
	return r.step(t, -1)
}

func (r *TeamRegistry) step(t *Team, delta int) (*Team, bool) {
	n := len(r.teams)
	if n == 0 {
		return nil, false
	}
	for i, cur := range r.teams {
		if cur == t {
			return r.teams[((i+delta)%n+n)%n], true
		}
	}
	return r.teams[0], true
}

// Teams returns every team in creation order.
func (r *TeamRegistry) Teams() []*Team {
	return append([]*Team(nil), r.teams...)
}

func (r *TeamRegistry) Len() int { return len(r.teams) }

// NonEmpty counts teams with at least one member.
func (r *TeamRegistry) NonEmpty() int {
	n := 0
	for _, t := range r.teams {
		if len(t.members) > 0 {
			n++
		}
	}
	return n
}

// Clear drops every team and assignment in one step.
func (r *TeamRegistry) Clear() {
	r.teams = nil
	clear(r.byName)
	clear(r.byColor)
	clear(r.playerTeam)
}

// PruneEmpty deletes every team without members and returns how many were
// removed.
func (r *TeamRegistry) PruneEmpty() int {
	var empty []*Team
	for _, t := range r.teams {
		if len(t.members) == 0 {
			empty = append(empty, t)
		}
	}
	for _, t := range empty {
		r.deleteTeam(t)
	}
	return len(empty)
}

// ClearLedgers empties every team's ledger.
func (r *TeamRegistry) ClearLedgers() {
	for _, t := range r.teams {
		t.ledger.Clear()
	}
}

// HeldByOther returns a team other than t whose ledger holds q.
func (r *TeamRegistry) HeldByOther(t *Team, q Quest) (*Team, bool) {
	for _, other := range r.teams {
		if other != t && other.ledger.Has(q) {
			return other, true
		}
	}
	return nil, false
}

func (r *TeamRegistry) owns(t *Team) bool {
	return t != nil && r.byName[t.name] == t
}

func (r *TeamRegistry) deleteTeam(t *Team) {
	for i, cur := range r.teams {
		if cur == t {
			r.teams = append(r.teams[:i], r.teams[i+1:]...)
			break
		}
	}
	delete(r.byName, t.name)
	delete(r.byColor, t.color)
	for _, m := range t.members {
		delete(r.playerTeam, m.ID)
	}
}
