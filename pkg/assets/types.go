package assets

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID tolerates both JSON string and numeric ids; the Assets API is not
// consistent about which it returns across deployments.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*id = ID(v)
	case float64:
		*id = ID(strconv.FormatFloat(v, 'f', -1, 64))
	case nil:
		*id = ""
	default:
		return fmt.Errorf("assets: unsupported id type %T", raw)
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Object is one asset object returned by an AQL query.
type Object struct {
	ID         ID                `json:"id"`
	Label      string            `json:"label"`
	ObjectKey  string            `json:"objectKey"`
	Attributes []ObjectAttribute `json:"attributes"`
}

// ObjectAttribute is one attribute slot on an object, carrying the attribute
// type id and its (possibly multi-valued) values.
type ObjectAttribute struct {
	ObjectTypeAttributeID ID               `json:"objectTypeAttributeId"`
	Values                []AttributeValue `json:"objectAttributeValues"`
}

// AttributeValue is a single attribute value: either a literal or a reference
// to another object, in which case the referenced object's label stands in.
type AttributeValue struct {
	Value            string
	ReferencedObject *ReferencedObject
}

// ReferencedObject is the target of a reference-typed attribute value.
type ReferencedObject struct {
	Label string `json:"label"`
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value            any               `json:"value"`
		ReferencedObject *ReferencedObject `json:"referencedObject"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.ReferencedObject = raw.ReferencedObject
	switch val := raw.Value.(type) {
	case string:
		v.Value = val
	case float64:
		v.Value = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		v.Value = strconv.FormatBool(val)
	case nil:
		v.Value = ""
	default:
		return fmt.Errorf("assets: unsupported attribute value type %T", raw.Value)
	}
	return nil
}

// Display returns the literal value, or the referenced object's label for
// reference-typed values.
func (v AttributeValue) Display() string {
	if v.Value != "" {
		return v.Value
	}
	if v.ReferencedObject != nil {
		return v.ReferencedObject.Label
	}
	return ""
}

// ObjectTypeAttribute is one attribute definition of an object type.
type ObjectTypeAttribute struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ConnectedTicket is a Jira issue linked to an asset object.
type ConnectedTicket struct {
	Key string `json:"key"`
}
