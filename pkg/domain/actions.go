package domain

// ElementAction selects how refreshElements reconciles its payload.
type ElementAction string

// Element actions accepted by refreshElements.
const (
	// ElementUpdate field-merges matching elements and appends the others.
	ElementUpdate ElementAction = "update"
	// ElementReplace discards the held elements for the payload.
	ElementReplace ElementAction = "replace"
	// ElementRemove deletes the listed ids.
	ElementRemove ElementAction = "remove"
)

// WeekAction selects how the week sequence absorbs incoming records.
type WeekAction string

// Week actions. Only WeekAddStart and WeekAddEnd are accepted by addSemaines;
// WeekRefresh is what refreshSemaines applies.
const (
	WeekAddStart WeekAction = "addStart"
	WeekAddEnd   WeekAction = "addEnd"
	WeekRefresh  WeekAction = "refresh"
)
