package domain

import "time"

// Patch is a partial update for a record of type T. Absent fields leave the
// target untouched.
type Patch[T any] interface {
	Identified
	// ApplyTo copies every present field onto target.
	ApplyTo(target *T)
	// Materialize builds a new record from the present fields.
	Materialize() *T
}

// ElementPatch is the partial form of Element. Fields entries are merged key
// by key into the target's Fields.
type ElementPatch struct {
	ID     int64          `json:"id"`
	Kind   *string        `json:"kind,omitempty"`
	Label  *string        `json:"label,omitempty"`
	Fields map[string]any `json:"-"`
}

// RecordID implements Identified.
func (p ElementPatch) RecordID() int64 { return p.ID }

// ApplyTo merges the patch into target without touching its ID.
func (p ElementPatch) ApplyTo(target *Element) {
	if target == nil {
		return
	}
	if p.Kind != nil {
		target.Kind = *p.Kind
	}
	if p.Label != nil {
		target.Label = *p.Label
	}
	if len(p.Fields) > 0 {
		if target.Fields == nil {
			target.Fields = make(map[string]any, len(p.Fields))
		}
		for k, v := range p.Fields {
			target.Fields[k] = v
		}
	}
}

// Materialize implements Patch.
func (p ElementPatch) Materialize() *Element {
	e := &Element{ID: p.ID}
	p.ApplyTo(e)
	return e
}

// ElementPatchFrom turns a full record into a patch carrying every field.
func ElementPatchFrom(e Element) ElementPatch {
	kind, label := e.Kind, e.Label
	return ElementPatch{ID: e.ID, Kind: &kind, Label: &label, Fields: cloneFields(e.Fields)}
}

// PersonnelPatch is the partial form of PersonnelDeclaration. A non-nil
// Periods slice, empty included, replaces the nested periods.
type PersonnelPatch struct {
	ID        int64     `json:"id"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Matricule *string   `json:"matricule,omitempty"`
	Periods   []*Period `json:"gta_periodes,omitempty"`
	// Extra entries are merged key by key, like ElementPatch.Fields.
	Extra map[string]any `json:"-"`
}

// RecordID implements Identified.
func (p PersonnelPatch) RecordID() int64 { return p.ID }

// ApplyTo merges the patch into target without touching its ID.
func (p PersonnelPatch) ApplyTo(target *PersonnelDeclaration) {
	if target == nil {
		return
	}
	if p.FirstName != nil {
		target.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		target.LastName = *p.LastName
	}
	if p.Matricule != nil {
		target.Matricule = *p.Matricule
	}
	if p.Periods != nil {
		target.Periods = p.Periods
	}
	if len(p.Extra) > 0 {
		if target.Extra == nil {
			target.Extra = make(map[string]any, len(p.Extra))
		}
		for k, v := range p.Extra {
			target.Extra[k] = v
		}
	}
}

// Materialize implements Patch.
func (p PersonnelPatch) Materialize() *PersonnelDeclaration {
	d := &PersonnelDeclaration{ID: p.ID}
	p.ApplyTo(d)
	return d
}

// PeriodPatch is the partial form of Period. PersonnelID is always required
// since it locates the owner.
type PeriodPatch struct {
	ID          int64      `json:"id"`
	PersonnelID int64      `json:"structure__personnel_id"`
	Start       *time.Time `json:"date_debut,omitempty"`
	End         *time.Time `json:"date_fin,omitempty"`
	Label       *string    `json:"label,omitempty"`
}

// RecordID implements Identified.
func (p PeriodPatch) RecordID() int64 { return p.ID }

// OwnerID returns the id of the personnel declaration owning the period.
func (p PeriodPatch) OwnerID() int64 { return p.PersonnelID }

// ApplyTo merges the patch into target without touching its ID.
func (p PeriodPatch) ApplyTo(target *Period) {
	if target == nil {
		return
	}
	target.PersonnelID = p.PersonnelID
	if p.Start != nil {
		target.Start = *p.Start
	}
	if p.End != nil {
		target.End = *p.End
	}
	if p.Label != nil {
		target.Label = *p.Label
	}
}

// Materialize implements Patch.
func (p PeriodPatch) Materialize() *Period {
	period := &Period{ID: p.ID}
	p.ApplyTo(period)
	return period
}

var (
	_ Patch[Element]              = ElementPatch{}
	_ Patch[PersonnelDeclaration] = PersonnelPatch{}
	_ Patch[Period]               = PeriodPatch{}
)
