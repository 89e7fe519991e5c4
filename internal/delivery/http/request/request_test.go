package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRecordKeepsOrder(t *testing.T) {
	rec, err := DecodeRecord(strings.NewReader(`{"model":"X200","category":"excavator","Weight (t)":20.5,"Cab":true,"notes":null}`))
	require.NoError(t, err)
	require.Equal(t, []string{"model", "category", "Weight (t)", "Cab", "notes"}, rec.Names())

	v, _ := rec.Get("Weight (t)")
	require.Equal(t, "20.5", *v)
	v, _ = rec.Get("Cab")
	require.Equal(t, "true", *v)
	v, ok := rec.Get("notes")
	require.True(t, ok)
	require.Nil(t, v)
}

func TestDecodeRecordRejects(t *testing.T) {
	for name, body := range map[string]string{
		"array":    `[1,2]`,
		"nested":   `{"a":{"b":1}}`,
		"list":     `{"a":[1]}`,
		"trailing": `{"a":"1"} {}`,
		"broken":   `{"a":`,
		"empty":    ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRecord(strings.NewReader(body))
			require.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestIdentityParam(t *testing.T) {
	require.Nil(t, IdentityParam(""))
	require.Equal(t, []string{"model", "serial"}, IdentityParam(" model, ,serial"))
}
