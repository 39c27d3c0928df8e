package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required,max=5"`
	Date  string   `json:"date" validate:"required,isodate"`
	Slots []string `json:"slots" validate:"dive,oneof=DAY NIGHT"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	issues := Struct(&sample{Name: "toolongname", Date: "2024-13-40", Slots: []string{"DAY", "NOON"}})
	require.Len(t, issues, 3)

	fields := map[string]string{}
	for _, is := range issues {
		fields[is.Field] = is.Rule
	}
	assert.Equal(t, "max", fields["name"])
	assert.Equal(t, "isodate", fields["date"])
	assert.Equal(t, "oneof", fields["slots[1]"])
}

func TestStructValid(t *testing.T) {
	assert.Nil(t, Struct(&sample{Name: "ok", Date: "2024-05-01", Slots: []string{"NIGHT"}}))
}
