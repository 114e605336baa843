package domain

import (
	"bytes"
	"encoding/json"
)

// Admin query type tags. This is a closed vocabulary: payloads with any other
// tag are rejected at decode time.
const (
	QTTrackTable               = "track_table"
	QTUntrackTable             = "untrack_table"
	QTCreateObjectRelationship = "create_object_relationship"
	QTCreateArrayRelationship  = "create_array_relationship"
	QTDropRelationship         = "drop_relationship"
	QTCreateSelectPermission   = "create_select_permission"
	QTDropPermission           = "drop_permission"
	QTCreateQueryTemplate      = "create_query_template"
	QTDropQueryTemplate        = "drop_query_template"
	QTBulk                     = "bulk"
)

// TrackTableArgs registers a table in the table registry.
type TrackTableArgs struct {
	Table QualifiedTable
}

// UnmarshalJSON accepts both {"table": {...}} and the bare table payload.
func (a *TrackTableArgs) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Table *QualifiedTable `json:"table"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Table != nil {
		a.Table = *wrapped.Table
		return nil
	}
	return json.Unmarshal(data, &a.Table)
}

// UntrackTableArgs removes a table from the table registry.
type UntrackTableArgs struct {
	Table QualifiedTable `json:"table"`
}

// CreateRelationshipArgs adds a relationship to the relationship registry.
// Using carries the relationship definition verbatim; the engine stores it
// opaquely and the GraphQL-to-SQL compiler interprets it.
type CreateRelationshipArgs struct {
	Table   QualifiedTable  `json:"table"`
	Name    string          `json:"name"`
	Using   json.RawMessage `json:"using"`
	Comment *string         `json:"comment"`
}

// DropRelationshipArgs removes a relationship from the relationship registry.
type DropRelationshipArgs struct {
	Table        QualifiedTable `json:"table"`
	Relationship string         `json:"relationship"`
}

// CreatePermissionArgs adds a permission to the permission registry.
type CreatePermissionArgs struct {
	Table      QualifiedTable  `json:"table"`
	Role       string          `json:"role"`
	Permission json.RawMessage `json:"permission"`
	Comment    *string         `json:"comment"`
}

// DropPermissionArgs removes a permission from the permission registry.
type DropPermissionArgs struct {
	Table QualifiedTable `json:"table"`
	Role  string         `json:"role"`
	Type  string         `json:"type"`
}

// CreateQueryTemplateArgs adds a named query template to the template registry.
type CreateQueryTemplateArgs struct {
	Name     string          `json:"name"`
	Template json.RawMessage `json:"template"`
	Comment  *string         `json:"comment"`
}

// DropQueryTemplateArgs removes a query template from the template registry.
type DropQueryTemplateArgs struct {
	Name string `json:"name"`
}

// AdminQuery is one decoded administrative metadata request. Exactly one of
// the variant fields is non-nil, matching Type.
type AdminQuery struct {
	Type string

	TrackTable               *TrackTableArgs
	UntrackTable             *UntrackTableArgs
	CreateObjectRelationship *CreateRelationshipArgs
	CreateArrayRelationship  *CreateRelationshipArgs
	DropRelationship         *DropRelationshipArgs
	CreateSelectPermission   *CreatePermissionArgs
	DropPermission           *DropPermissionArgs
	CreateQueryTemplate      *CreateQueryTemplateArgs
	DropQueryTemplate        *DropQueryTemplateArgs
	Bulk                     []AdminQuery
}

type queryEnvelope struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args"`
}

// DecodeAdminQuery decodes a raw JSON payload into one of the known admin
// query variants. Malformed JSON yields an InvalidJSONError; well-formed JSON
// with an unknown or missing type tag yields a DecodeError. Decoding performs
// no I/O, so rejection happens before any transaction is opened.
func DecodeAdminQuery(raw []byte) (*AdminQuery, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var env queryEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, &InvalidJSONError{Err: err}
	}
	if env.Type == "" {
		return nil, ErrDecode("admin query is missing the \"type\" tag")
	}
	return decodeVariant(env)
}

func decodeVariant(env queryEnvelope) (*AdminQuery, error) {
	q := &AdminQuery{Type: env.Type}
	args := env.Args
	if args == nil {
		args = json.RawMessage("null")
	}

	var err error
	switch env.Type {
	case QTTrackTable:
		q.TrackTable = &TrackTableArgs{}
		err = json.Unmarshal(args, q.TrackTable)
	case QTUntrackTable:
		q.UntrackTable = &UntrackTableArgs{}
		err = json.Unmarshal(args, q.UntrackTable)
	case QTCreateObjectRelationship:
		q.CreateObjectRelationship = &CreateRelationshipArgs{}
		err = json.Unmarshal(args, q.CreateObjectRelationship)
	case QTCreateArrayRelationship:
		q.CreateArrayRelationship = &CreateRelationshipArgs{}
		err = json.Unmarshal(args, q.CreateArrayRelationship)
	case QTDropRelationship:
		q.DropRelationship = &DropRelationshipArgs{}
		err = json.Unmarshal(args, q.DropRelationship)
	case QTCreateSelectPermission:
		q.CreateSelectPermission = &CreatePermissionArgs{}
		err = json.Unmarshal(args, q.CreateSelectPermission)
	case QTDropPermission:
		q.DropPermission = &DropPermissionArgs{}
		err = json.Unmarshal(args, q.DropPermission)
	case QTCreateQueryTemplate:
		q.CreateQueryTemplate = &CreateQueryTemplateArgs{}
		err = json.Unmarshal(args, q.CreateQueryTemplate)
	case QTDropQueryTemplate:
		q.DropQueryTemplate = &DropQueryTemplateArgs{}
		err = json.Unmarshal(args, q.DropQueryTemplate)
	case QTBulk:
		var items []queryEnvelope
		if err := json.Unmarshal(args, &items); err != nil {
			return nil, ErrDecode("bulk args must be an array of admin queries: %v", err)
		}
		q.Bulk = make([]AdminQuery, 0, len(items))
		for _, item := range items {
			if item.Type == "" {
				return nil, ErrDecode("bulk item is missing the \"type\" tag")
			}
			sub, err := decodeVariant(item)
			if err != nil {
				return nil, err
			}
			q.Bulk = append(q.Bulk, *sub)
		}
	default:
		return nil, ErrDecode("unknown admin query type %q", env.Type)
	}

	if err != nil {
		return nil, ErrDecode("cannot decode args for %q: %v", env.Type, err)
	}
	return q, nil
}
