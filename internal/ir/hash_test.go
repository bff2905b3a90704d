package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScript() Script {
	return Script{
		Name: "init",
		Events: []EventNode{
			{
				Command: "EVENT_GET_BRUSH_TILE",
				Args:    Object{"x": Int(3), "y": Int(4), "output": String("V1")},
			},
			{
				Command:  "EVENT_IF_ACTOR_DISTANCE_FROM_ACTOR",
				Children: map[string][]EventNode{"true": {{Command: "EVENT_ENABLE_EDITOR"}}},
			},
		},
	}
}

func TestScriptHashDeterministic(t *testing.T) {
	a, err := ScriptHash(sampleScript(), "reg", "res")
	require.NoError(t, err)
	b, err := ScriptHash(sampleScript(), "reg", "res")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestScriptHashChangesWithInputs(t *testing.T) {
	base := MustScriptHash(sampleScript(), "reg", "res")

	changed := sampleScript()
	changed.Events[0].Args["x"] = Int(5)

	assert.NotEqual(t, base, MustScriptHash(changed, "reg", "res"))
	assert.NotEqual(t, base, MustScriptHash(sampleScript(), "reg2", "res"))
	assert.NotEqual(t, base, MustScriptHash(sampleScript(), "reg", "res2"))
}

func TestNodeHashDomainSeparated(t *testing.T) {
	node := sampleScript().Events[0]
	nodeHash, err := NodeHash(node)
	require.NoError(t, err)

	plain, err := Fingerprint(DomainScript, node.ToValue())
	require.NoError(t, err)

	assert.NotEqual(t, nodeHash, plain)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(sampleScript().Events))
	assert.Equal(t, 0, Count(nil))
}

func TestPathChild(t *testing.T) {
	p := Path("").Child("events", 2)
	assert.Equal(t, Path("events[2]"), p)
	assert.Equal(t, Path("events[2].true[0]"), p.Child("true", 0))
}
