package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Element and personnel records travel as flat JSON objects: besides the
// named attributes, every other top-level key is kept in Fields (Extra for
// personnel) and written back at the top level.

type (
	elementWire        Element
	elementPatchWire   ElementPatch
	personnelWire      PersonnelDeclaration
	personnelPatchWire PersonnelPatch
)

var (
	elementKeys   = []string{"id", "kind", "label"}
	personnelKeys = []string{"id", "first_name", "last_name", "matricule", "gta_periodes"}
)

// nestedFieldsKey is still accepted on input as an object of attributes.
const nestedFieldsKey = "fields"

// UnmarshalJSON keeps unknown top-level keys in Fields.
func (e *Element) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w elementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fields, err := unknownKeys(data, elementKeys)
	if err != nil {
		return err
	}
	w.Fields = liftNested(fields, nestedFieldsKey)
	*e = Element(w)
	return nil
}

// MarshalJSON writes Fields at the top level next to the named attributes.
func (e Element) MarshalJSON() ([]byte, error) {
	return withUnknownKeys(elementWire(e), e.Fields)
}

// UnmarshalJSON keeps unknown top-level keys in Fields.
func (p *ElementPatch) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w elementPatchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fields, err := unknownKeys(data, elementKeys)
	if err != nil {
		return err
	}
	w.Fields = liftNested(fields, nestedFieldsKey)
	*p = ElementPatch(w)
	return nil
}

// MarshalJSON writes Fields at the top level next to the present attributes.
func (p ElementPatch) MarshalJSON() ([]byte, error) {
	return withUnknownKeys(elementPatchWire(p), p.Fields)
}

// UnmarshalJSON keeps unknown top-level keys in Extra.
func (p *PersonnelDeclaration) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w personnelWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := unknownKeys(data, personnelKeys)
	if err != nil {
		return err
	}
	w.Extra = extra
	*p = PersonnelDeclaration(w)
	return nil
}

// MarshalJSON writes Extra at the top level.
func (p PersonnelDeclaration) MarshalJSON() ([]byte, error) {
	return withUnknownKeys(personnelWire(p), p.Extra)
}

// UnmarshalJSON keeps unknown top-level keys in Extra.
func (p *PersonnelPatch) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var w personnelPatchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := unknownKeys(data, personnelKeys)
	if err != nil {
		return err
	}
	w.Extra = extra
	*p = PersonnelPatch(w)
	return nil
}

// MarshalJSON writes Extra at the top level.
func (p PersonnelPatch) MarshalJSON() ([]byte, error) {
	return withUnknownKeys(personnelPatchWire(p), p.Extra)
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// unknownKeys decodes every top-level key of the object in data that is not
// listed in known. It returns nil when there is none.
func unknownKeys(data []byte, known []string) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var out map[string]any
	for key, value := range raw {
		if slices.Contains(known, key) {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string]any, len(raw))
		}
		out[key] = decoded
	}
	return out, nil
}

// liftNested flattens fields[key] into fields when it is an object. Keys
// already present at the top level win.
func liftNested(fields map[string]any, key string) map[string]any {
	nested, ok := fields[key].(map[string]any)
	if !ok {
		return fields
	}
	delete(fields, key)
	for k, v := range nested {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// withUnknownKeys marshals named and adds extra keys that do not collide
// with the named ones.
func withUnknownKeys(named any, extra map[string]any) ([]byte, error) {
	raw, err := json.Marshal(named)
	if err != nil || len(extra) == 0 {
		return raw, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, taken := out[key]; taken {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}
	return json.Marshal(out)
}
