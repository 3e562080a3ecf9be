package models

// SearchView is a named search projection over one collection, listing
// which fields are analyzed with which analyzer.
type SearchView struct {
	Name       string            `json:"name"`
	Collection string            `json:"collection"`
	Fields     map[string]string `json:"fields"` // field name -> analyzer name
}

// HasField reports whether field is registered in the view.
func (v *SearchView) HasField(field string) bool {
	_, ok := v.Fields[field]
	return ok
}

// EnsureFields registers every field in fields under analyzer if not
// already present, returning true if the view was modified.
func (v *SearchView) EnsureFields(fields []string, analyzer string) bool {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	changed := false
	for _, f := range fields {
		if _, ok := v.Fields[f]; !ok {
			v.Fields[f] = analyzer
			changed = true
		}
	}
	return changed
}
