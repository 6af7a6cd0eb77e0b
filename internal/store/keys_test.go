package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeysCollectionOrder(t *testing.T) {
	node := map[string]any{
		"3D_Print":       1,
		"12":             1,
		"7":              1,
		"Mentor_Support": 1,
		"007":            1,
		"1700000000000":  1,
	}
	assert.Equal(t, []string{"7", "12", "1700000000000", "007", "3D_Print", "Mentor_Support"}, Keys(node))
}

func TestKeysDeterministic(t *testing.T) {
	node := map[string]any{"b@x.in": 1, "a@x.in": 1, "c@x.in": 1}
	for i := 0; i < 20; i++ {
		assert.Equal(t, []string{"a@x.in", "b@x.in", "c@x.in"}, Keys(node))
	}
}

func TestRelated(t *testing.T) {
	assert.True(t, Related("requests", "requests/a@x.in/7/history/1/status"))
	assert.True(t, Related("requests/a@x.in/Mentor_Support/history", "requests/a@x.in/Mentor_Support"))
	assert.True(t, Related("", "users/role"))
	assert.False(t, Related("requests/a@x.in/Mentor_Support/history", "requests/b@x.in/Mentor_Support/history"))
	assert.False(t, Related("requests/a", "requests/ab"))
}

func TestFlattenAssembleRoundTrip(t *testing.T) {
	value := map[string]any{
		"7": map[string]any{"history": map[string]any{"1": map[string]any{"status": "raised"}}},
		"x": "leaf",
	}
	leaves := Flatten("requests/a@x.in", value)
	assert.Equal(t, map[string]any{
		"requests/a@x.in/7/history/1/status": "raised",
		"requests/a@x.in/x":                  "leaf",
	}, leaves)

	rebuilt, err := Assemble("requests/a@x.in", leaves)
	assert.NoError(t, err)
	assert.Equal(t, value, rebuilt)

	leaf, err := Assemble("requests/a@x.in/x", map[string]any{"requests/a@x.in/x": "leaf"})
	assert.NoError(t, err)
	assert.Equal(t, "leaf", leaf)
}
