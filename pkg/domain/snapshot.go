package domain

// Snapshot is a deep copy of everything the store holds. Mutating it never
// reaches the live state.
type Snapshot struct {
	Structures        []Structure            `json:"structures"`
	ActiveStructureID *int64                 `json:"active_structure_id"`
	Login             *Login                 `json:"login"`
	Elements          []Element              `json:"elements"`
	Opened            *Element               `json:"opened_element"`
	Tmp               *Element               `json:"tmp_element"`
	PointagesSelected []Pointage             `json:"pointage_selected"`
	Personnels        []PersonnelDeclaration `json:"personnels_declarations"`
	Weeks             []WeekRecord           `json:"semaines"`
}

// CloneStructure returns a deep copy of s.
func CloneStructure(s Structure) Structure {
	cp := s
	if s.Metadata != nil {
		cp.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// CloneElement returns a deep copy of e. Nested values inside Fields are
// copied one level deep.
func CloneElement(e Element) Element {
	cp := e
	cp.Fields = cloneFields(e.Fields)
	return cp
}

// CloneLogin returns a deep copy of l.
func CloneLogin(l Login) Login {
	cp := l
	cp.Roles = append([]string(nil), l.Roles...)
	return cp
}

// ClonePersonnel returns a deep copy of p, periods included.
func ClonePersonnel(p PersonnelDeclaration) PersonnelDeclaration {
	cp := p
	cp.Extra = cloneFields(p.Extra)
	if p.Periods != nil {
		cp.Periods = make([]*Period, 0, len(p.Periods))
		for _, period := range p.Periods {
			if period == nil {
				continue
			}
			dup := *period
			cp.Periods = append(cp.Periods, &dup)
		}
	}
	return cp
}

func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch typed := v.(type) {
		case map[string]any:
			inner := make(map[string]any, len(typed))
			for ik, iv := range typed {
				inner[ik] = iv
			}
			out[k] = inner
		case []any:
			out[k] = append([]any(nil), typed...)
		default:
			out[k] = v
		}
	}
	return out
}
