// SPDX-License-Identifier: Apache-2.0

package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/core/action"
)

func TestRegistryKinds(t *testing.T) {
	registry := action.NewRegistry()

	kinds := registry.Kinds()
	require.Len(t, kinds, 14)

	// Catalog order is stable; the terminal kinds close the set.
	assert.Equal(t, action.KindClick, kinds[0])
	assert.Equal(t, action.KindTaskComplete, kinds[len(kinds)-2])
	assert.Equal(t, action.KindTaskFailed, kinds[len(kinds)-1])

	seen := make(map[action.Kind]bool)
	for _, k := range kinds {
		assert.False(t, seen[k], "kind %s registered twice", k)
		seen[k] = true

		sch, err := registry.SchemaFor(k)
		require.NoError(t, err)
		assert.Equal(t, k, sch.Kind)
		assert.NotEmpty(t, sch.Description)
	}
}

func TestSchemaForUnknownKind(t *testing.T) {
	registry := action.NewRegistry()

	sch, err := registry.SchemaFor("FLY_TO_MOON")
	assert.Nil(t, sch)

	var unknownErr *action.UnknownKindError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, action.Kind("FLY_TO_MOON"), unknownErr.Kind)
}

func TestTerminalKinds(t *testing.T) {
	registry := action.NewRegistry()

	for _, k := range registry.Kinds() {
		sch, err := registry.SchemaFor(k)
		require.NoError(t, err)
		assert.Equal(t, action.IsTerminal(k), sch.Terminal, "terminal flag mismatch for %s", k)
	}

	assert.True(t, action.IsTerminal(action.KindTaskComplete))
	assert.True(t, action.IsTerminal(action.KindTaskFailed))
	assert.False(t, action.IsTerminal(action.KindClick))
}

func TestJSONSchemaShape(t *testing.T) {
	registry := action.NewRegistry()

	sch, err := registry.SchemaFor(action.KindTypeText)
	require.NoError(t, err)

	jsonSchema := sch.JSONSchema()
	assert.Equal(t, "object", jsonSchema["type"])

	properties, ok := jsonSchema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, properties, "text")
	assert.Contains(t, properties, "interval_ms")
	// Shared fields are always accepted.
	assert.Contains(t, properties, "kind")
	assert.Contains(t, properties, "reason")

	required, ok := jsonSchema["required"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"text"}, required)
}

func TestSchemaDefaults(t *testing.T) {
	registry := action.NewRegistry()

	sch, err := registry.SchemaFor(action.KindWait)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"duration_ms": 1000}, sch.Defaults())

	sch, err = registry.SchemaFor(action.KindScroll)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"amount": 10}, sch.Defaults())

	sch, err = registry.SchemaFor(action.KindTakeScreenshot)
	require.NoError(t, err)
	assert.Empty(t, sch.Defaults())
}

func TestSchemaDecode(t *testing.T) {
	registry := action.NewRegistry()

	sch, err := registry.SchemaFor(action.KindClick)
	require.NoError(t, err)

	act, err := sch.Decode(map[string]interface{}{
		"kind":   "CLICK",
		"x":      float64(10),
		"y":      float64(20),
		"reason": "press the button",
		"extra":  "ignored",
	})
	require.NoError(t, err)

	click, ok := act.(action.Click)
	require.True(t, ok)
	require.NotNil(t, click.X)
	require.NotNil(t, click.Y)
	assert.Equal(t, 10, *click.X)
	assert.Equal(t, 20, *click.Y)
	assert.Equal(t, "press the button", click.Purpose())
	assert.Equal(t, action.KindClick, click.Kind())
}

func TestSchemaDecodeOmitsAbsentCoordinates(t *testing.T) {
	registry := action.NewRegistry()

	sch, err := registry.SchemaFor(action.KindDoubleClick)
	require.NoError(t, err)

	act, err := sch.Decode(map[string]interface{}{
		"kind":        "DOUBLE_CLICK",
		"description": "the Save icon",
	})
	require.NoError(t, err)

	doubleClick, ok := act.(action.DoubleClick)
	require.True(t, ok)
	assert.Nil(t, doubleClick.X)
	assert.Nil(t, doubleClick.Y)
	assert.Equal(t, "the Save icon", doubleClick.Description)
}
