package reconciler

import (
	"time"

	"github.com/avoylenko/jira-asset-sync/pkg/assets"
)

// Semantic attribute names the reconciler reads from the catalog. The
// attribute mapping file translates numeric attribute ids into these names.
const (
	attrDueDate     = "Update"
	attrName        = "Name"
	attrResponsible = "Primary Responsible Employee"
)

const dueDateLayout = "2006-01-02"

// ExtractAttributes flattens an object's raw attribute records into a map
// from semantic name to ordered values. Attribute ids absent from the
// mapping are dropped.
func ExtractAttributes(obj assets.Object, attributeMap map[string]string) map[string][]string {
	attributes := map[string][]string{}
	for _, attr := range obj.Attributes {
		name := attributeMap[attr.ObjectTypeAttributeID.String()]
		if name == "" {
			continue
		}
		values := make([]string, 0, len(attr.Values))
		for _, value := range attr.Values {
			values = append(values, value.Display())
		}
		attributes[name] = values
	}
	return attributes
}

// AssetFields is the validated, typed view of one asset's attributes.
type AssetFields struct {
	Name            string
	ResponsibleName string
	DueDate         time.Time
	HasDueDate      bool
	RawDueDate      string
}

// ParseFields converts the extracted attribute map into typed fields. The
// due date must be a bare ISO calendar date; anything else leaves HasDueDate
// unset (the raw string is kept for diagnostics).
func ParseFields(attributes map[string][]string) AssetFields {
	fields := AssetFields{
		Name:            firstValue(attributes, attrName),
		ResponsibleName: firstValue(attributes, attrResponsible),
		RawDueDate:      firstValue(attributes, attrDueDate),
	}
	if fields.RawDueDate != "" {
		if due, err := time.Parse(dueDateLayout, fields.RawDueDate); err == nil {
			fields.DueDate = due
			fields.HasDueDate = true
		}
	}
	return fields
}

func firstValue(attributes map[string][]string, name string) string {
	values := attributes[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
