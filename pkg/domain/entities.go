// Package domain defines the records held by the gtasync store, their typed
// patch variants, and the action vocabularies accepted by its commands.
package domain

import "time"

// EntityType identifies the kind of record a command or event refers to.
type EntityType string

// Supported entity type identifiers used in events and lookups.
const (
	// EntityStructure identifies a structure (tenant) record.
	EntityStructure EntityType = "structure"
	// EntityElement identifies a generically loaded element.
	EntityElement EntityType = "element"
	// EntitySession identifies the login singleton.
	EntitySession EntityType = "session"
	// EntityPersonnel identifies a personnel declaration.
	EntityPersonnel EntityType = "personnel"
	// EntityPeriod identifies a period nested under a personnel declaration.
	EntityPeriod EntityType = "period"
	// EntityPointage identifies a selected time entry.
	EntityPointage EntityType = "pointage"
	// EntityWeek identifies a weekly analytic record.
	EntityWeek EntityType = "week"
)

// Identified is implemented by every record held in an id-keyed collection.
type Identified interface {
	RecordID() int64
}

// Structure is an organisational scope. Exactly one is active at a time.
type Structure struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Code     string            `json:"code,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RecordID implements Identified.
func (s Structure) RecordID() int64 { return s.ID }

// Element is a lazily fetched domain object. Fields carries the object's
// arbitrary attributes keyed by name; on the wire they are top-level keys.
type Element struct {
	ID     int64          `json:"id"`
	Kind   string         `json:"kind,omitempty"`
	Label  string         `json:"label,omitempty"`
	Fields map[string]any `json:"-"`
}

// RecordID implements Identified.
func (e Element) RecordID() int64 { return e.ID }

// Login is the credential payload of the current session.
type Login struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Token    string   `json:"token,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// PersonnelDeclaration is a person carrying the periods declared for them.
type PersonnelDeclaration struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Matricule string    `json:"matricule,omitempty"`
	Periods   []*Period `json:"gta_periodes"`
	// Extra holds every other top-level key of the declaration.
	Extra map[string]any `json:"-"`
}

// RecordID implements Identified.
func (p PersonnelDeclaration) RecordID() int64 { return p.ID }

// Period is a time range owned by exactly one PersonnelDeclaration, referenced
// through PersonnelID.
type Period struct {
	ID          int64     `json:"id"`
	PersonnelID int64     `json:"structure__personnel_id"`
	Start       time.Time `json:"date_debut"`
	End         time.Time `json:"date_fin"`
	Label       string    `json:"label,omitempty"`
}

// RecordID implements Identified.
func (p Period) RecordID() int64 { return p.ID }

// Pointage is a time entry chosen in a multi-select list. It is never merged,
// only added or removed.
type Pointage struct {
	ID          int64     `json:"id"`
	PersonnelID int64     `json:"personnel_id"`
	Date        time.Time `json:"date"`
	Minutes     int       `json:"minutes"`
	Status      string    `json:"status,omitempty"`
}

// RecordID implements Identified.
func (p Pointage) RecordID() int64 { return p.ID }

// WeekRecord is an analytic summary for one week. Week is its key; the held
// sequence is chronological.
type WeekRecord struct {
	Week            int `json:"week"`
	Year            int `json:"year"`
	WorkedMinutes   int `json:"worked_minutes"`
	ExpectedMinutes int `json:"expected_minutes"`
	Declarations    int `json:"declarations"`
}

// WeekKey returns the secondary key of a week record.
func WeekKey(w *WeekRecord) int { return w.Week }
