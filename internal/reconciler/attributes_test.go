package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avoylenko/jira-asset-sync/pkg/assets"
)

var testAttributeMap = map[string]string{
	"134": "Update",
	"135": "Name",
	"136": "Primary Responsible Employee",
}

func TestExtractAttributes(t *testing.T) {
	obj := assets.Object{
		ID: "42",
		Attributes: []assets.ObjectAttribute{
			{ObjectTypeAttributeID: "134", Values: []assets.AttributeValue{{Value: "2024-01-01"}}},
			{ObjectTypeAttributeID: "135", Values: []assets.AttributeValue{{Value: "gitlab"}}},
			{ObjectTypeAttributeID: "136", Values: []assets.AttributeValue{
				{ReferencedObject: &assets.ReferencedObject{Label: "Jane Doe"}},
				{ReferencedObject: &assets.ReferencedObject{Label: "John Roe"}},
			}},
			{ObjectTypeAttributeID: "999", Values: []assets.AttributeValue{{Value: "dropped"}}},
		},
	}

	attrs := ExtractAttributes(obj, testAttributeMap)
	assert.Equal(t, []string{"2024-01-01"}, attrs["Update"])
	assert.Equal(t, []string{"gitlab"}, attrs["Name"])
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, attrs["Primary Responsible Employee"], "multi-valued attributes keep order")
	assert.NotContains(t, attrs, "999", "unmapped attribute ids are dropped")
}

func TestParseFields(t *testing.T) {
	fields := ParseFields(map[string][]string{
		"Update":                       {"2024-01-01"},
		"Name":                         {"gitlab"},
		"Primary Responsible Employee": {"Jane Doe"},
	})

	assert.Equal(t, "gitlab", fields.Name)
	assert.Equal(t, "Jane Doe", fields.ResponsibleName)
	assert.True(t, fields.HasDueDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fields.DueDate)
	assert.Equal(t, "2024-01-01", fields.RawDueDate)
}

func TestParseFieldsBadDueDate(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
	}{
		{"missing", nil},
		{"empty", []string{""}},
		{"garbage", []string{"next tuesday"}},
		{"wrong layout", []string{"01/02/2024"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := ParseFields(map[string][]string{"Update": tc.raw})
			assert.False(t, fields.HasDueDate, "unparseable due date must not be guessed")
		})
	}
}
