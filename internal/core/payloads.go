package core

import (
	"bytes"
	"encoding/json"
)

// ElementsPayload is the input of refreshElements. Elements carries the
// records for update and replace; IDs carries the identifiers for remove.
// On the wire both travel under "elements".
type ElementsPayload struct {
	Action   ElementAction
	Elements []ElementPatch
	IDs      []int64
}

type elementsWire struct {
	Action   *ElementAction  `json:"action,omitempty"`
	Elements json.RawMessage `json:"elements,omitempty"`
}

// UnmarshalJSON decodes "elements" according to the action. A missing action
// means update. Elements under an unknown action are left undecoded so the
// command can reject the action itself.
func (p *ElementsPayload) UnmarshalJSON(data []byte) error {
	var wire elementsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = ElementsPayload{Action: ElementUpdate}
	if wire.Action != nil {
		p.Action = *wire.Action
	}
	if len(wire.Elements) == 0 || bytes.Equal(wire.Elements, []byte("null")) {
		return nil
	}
	switch p.Action {
	case ElementRemove:
		return json.Unmarshal(wire.Elements, &p.IDs)
	case ElementUpdate, ElementReplace:
		return json.Unmarshal(wire.Elements, &p.Elements)
	}
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (p ElementsPayload) MarshalJSON() ([]byte, error) {
	var (
		elements []byte
		err      error
	)
	if p.Action == ElementRemove {
		elements, err = json.Marshal(p.IDs)
	} else {
		elements, err = json.Marshal(p.Elements)
	}
	if err != nil {
		return nil, err
	}
	action := p.Action
	return json.Marshal(elementsWire{Action: &action, Elements: elements})
}

// LoginPayload opens a session.
type LoginPayload struct {
	Login      *Login       `json:"login"`
	Structures []*Structure `json:"structures"`
}

// PersonnelBatch carries either one declaration or a list of them. A single
// Personnel wins over Personnels.
type PersonnelBatch struct {
	Personnel  *PersonnelDeclaration   `json:"personnel,omitempty"`
	Personnels []*PersonnelDeclaration `json:"personnels,omitempty"`
}

// Records flattens the batch.
func (b PersonnelBatch) Records() []*PersonnelDeclaration {
	if b.Personnel != nil {
		return []*PersonnelDeclaration{b.Personnel}
	}
	return b.Personnels
}

// WeeksPayload is the input of addSemaines.
type WeeksPayload struct {
	Action WeekAction    `json:"action"`
	Weeks  []*WeekRecord `json:"semaines"`
}
