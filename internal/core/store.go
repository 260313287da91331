package core

import (
	"context"
	"sync"

	"gtasync/pkg/domain"
)

// Store owns a State and serialises access to it: one command runs to
// completion before the next starts.
type Store struct {
	mu    sync.RWMutex
	state *State
}

// NewStore constructs a store holding an empty state.
func NewStore() *Store {
	return &Store{state: NewState()}
}

// apply runs fn under the write lock.
func (s *Store) apply(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// View executes fn against a read-only view of the held state.
func (s *Store) View(_ context.Context, fn func(View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(View{state: s.state})
}

// Snapshot returns a deep copy of the held state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// View exposes read access to the state. Slices are copies; the records they
// point to are the live ones, so a later partial update shows through.
type View struct {
	state *State
}

// Structures returns the structures visible to the current login.
func (v View) Structures() []*Structure {
	return append([]*Structure(nil), v.state.structures...)
}

// ActiveStructureID returns the active structure id, if one was set.
func (v View) ActiveStructureID() (int64, bool) {
	if v.state.activeStructureID == nil {
		return 0, false
	}
	return *v.state.activeStructureID, true
}

// ActiveStructure resolves the active id among the held structures. It
// reports false when no id is set or the id is stale.
func (v View) ActiveStructure() (*Structure, bool) {
	return v.state.activeStructure()
}

// Login returns the session login, nil when logged out.
func (v View) Login() *Login {
	return v.state.login
}

// Elements returns the loaded elements in held order.
func (v View) Elements() []*Element {
	return append([]*Element(nil), v.state.elements...)
}

// FindElement looks an element up by id.
func (v View) FindElement(id int64) (*Element, bool) {
	return v.state.findElement(id)
}

// Opened returns the element open for detail viewing, nil when none.
func (v View) Opened() *Element {
	return v.state.opened
}

// Tmp returns the temporary duplicate of the opened element, nil when none.
func (v View) Tmp() *Element {
	return v.state.tmp
}

// PointagesSelected returns the selected time entries in selection order.
func (v View) PointagesSelected() []*Pointage {
	return v.state.pointages.Items()
}

// Personnels returns the selected personnel declarations in selection order.
func (v View) Personnels() []*PersonnelDeclaration {
	return v.state.personnels.Items()
}

// Weeks returns the weekly records in chronological order.
func (v View) Weeks() []*WeekRecord {
	return v.state.weeks.Items()
}

func snapshotFromState(st *State) Snapshot {
	snap := Snapshot{
		Structures:        make([]domain.Structure, 0, len(st.structures)),
		Elements:          make([]domain.Element, 0, len(st.elements)),
		PointagesSelected: make([]domain.Pointage, 0, st.pointages.Len()),
		Personnels:        make([]domain.PersonnelDeclaration, 0, st.personnels.Len()),
		Weeks:             make([]domain.WeekRecord, 0, st.weeks.Len()),
	}
	for _, s := range st.structures {
		snap.Structures = append(snap.Structures, domain.CloneStructure(*s))
	}
	if st.activeStructureID != nil {
		id := *st.activeStructureID
		snap.ActiveStructureID = &id
	}
	if st.login != nil {
		login := domain.CloneLogin(*st.login)
		snap.Login = &login
	}
	for _, e := range st.elements {
		snap.Elements = append(snap.Elements, domain.CloneElement(*e))
	}
	if st.opened != nil {
		opened := domain.CloneElement(*st.opened)
		snap.Opened = &opened
	}
	if st.tmp != nil {
		tmp := domain.CloneElement(*st.tmp)
		snap.Tmp = &tmp
	}
	for _, p := range st.pointages.live() {
		snap.PointagesSelected = append(snap.PointagesSelected, *p)
	}
	for _, p := range st.personnels.live() {
		snap.Personnels = append(snap.Personnels, domain.ClonePersonnel(*p))
	}
	for _, w := range st.weeks.items {
		snap.Weeks = append(snap.Weeks, *w)
	}
	return snap
}
