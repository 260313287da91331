package core

// State is everything the store holds. It is owned by a Store and only
// mutated through the Service commands; records are held by pointer so a
// partial update is visible to every holder of that pointer.
type State struct {
	structures        []*Structure
	activeStructureID *int64
	login             *Login
	elements          []*Element
	opened            *Element
	tmp               *Element
	pointages         Selection[Pointage]
	personnels        Selection[PersonnelDeclaration]
	weeks             *KeyedSequence[int, WeekRecord]
}

// NewState returns an empty state: no session, no structure, empty collections.
func NewState() *State {
	return &State{
		structures: []*Structure{},
		elements:   []*Element{},
		weeks:      NewKeyedSequence(weekKey),
	}
}

func weekKey(w *WeekRecord) int { return w.Week }

func (st *State) findElement(id int64) (*Element, bool) {
	if i := indexOf(st.elements, id); i >= 0 {
		return st.elements[i], true
	}
	return nil, false
}

func (st *State) upsertElements(patches []ElementPatch) {
	st.elements = upsert(st.elements, patches)
}

func (st *State) replaceElements(records []*Element) {
	st.elements = replaceAll(compact(records))
}

func (st *State) removeElements(ids []int64) {
	st.elements = removeIDs(st.elements, ids)
}

// open points the detail view at e. No lookup happens: the caller hands over
// the record it wants open.
func (st *State) open(e *Element) {
	st.opened = e
}

func (st *State) close() {
	st.opened = nil
}

// updateOpened merges patch into whatever is open. With nothing open it is a
// no-op and reports false.
func (st *State) updateOpened(patch ElementPatch) bool {
	if st.opened == nil {
		return false
	}
	patch.ApplyTo(st.opened)
	return true
}

func (st *State) setTmp(e *Element) {
	st.tmp = e
}

func (st *State) setLogin(login *Login) {
	st.login = login
}

func (st *State) setStructures(structures []*Structure) {
	st.structures = replaceAll(compact(structures))
}

func (st *State) setActiveStructureID(id int64) {
	st.activeStructureID = &id
}

// activeStructure resolves the active id against the held structures. A stale
// id resolves to false.
func (st *State) activeStructure() (*Structure, bool) {
	if st.activeStructureID == nil {
		return nil, false
	}
	if i := indexOf(st.structures, *st.activeStructureID); i >= 0 {
		return st.structures[i], true
	}
	return nil, false
}

// switchStructure leaves the current scope: it closes the open element,
// forgets the temporary copy, drops every element, then activates id.
func (st *State) switchStructure(id int64) {
	st.close()
	st.setTmp(nil)
	st.replaceElements(nil)
	st.setActiveStructureID(id)
}
