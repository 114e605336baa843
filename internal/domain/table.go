package domain

import "encoding/json"

// QualifiedTable names a table by schema and name. In admin query payloads it
// decodes from either a JSON object {"schema": ..., "name": ...} or a bare
// string, which is shorthand for a table in the public schema.
type QualifiedTable struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// String returns the schema-qualified name.
func (t QualifiedTable) String() string {
	return t.Schema + "." + t.Name
}

// UnmarshalJSON accepts both the object and bare-string payload shapes.
func (t *QualifiedTable) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		t.Schema = "public"
		t.Name = name
		return nil
	}

	type alias QualifiedTable
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Schema == "" {
		a.Schema = "public"
	}
	*t = QualifiedTable(a)
	return nil
}

// Validate checks that the table name is usable.
func (t QualifiedTable) Validate() error {
	if t.Name == "" {
		return ErrValidation("table name is required")
	}
	return nil
}
