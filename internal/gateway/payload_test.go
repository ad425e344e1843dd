package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitTruncatesLongString(t *testing.T) {
	g := NewPayloadGuard(10)

	out := g.Limit(strings.Repeat("x", 25))

	require.IsType(t, "", out)
	assert.Len(t, out.(string), 10)
}

func TestLimitShortStringUnchanged(t *testing.T) {
	g := NewPayloadGuard(10)

	assert.Equal(t, "hello", g.Limit("hello"))
	assert.Equal(t, strings.Repeat("y", 10), g.Limit(strings.Repeat("y", 10)))
}

func TestLimitWalksNestedStructures(t *testing.T) {
	g := NewPayloadGuard(5)
	payload := map[string]interface{}{
		"title": "way too long for the limit",
		"count": 3,
		"flags": []interface{}{true, "another long string", nil},
		"inner": map[string]interface{}{
			"body": "truncate me please",
			"ok":   false,
		},
	}

	out := g.Limit(payload).(map[string]interface{})

	assert.Equal(t, "way t", out["title"])
	assert.Equal(t, 3, out["count"])
	flags := out["flags"].([]interface{})
	assert.Equal(t, true, flags[0])
	assert.Equal(t, "anoth", flags[1])
	assert.Nil(t, flags[2])
	inner := out["inner"].(map[string]interface{})
	assert.Equal(t, "trunc", inner["body"])
	assert.Equal(t, false, inner["ok"])
}

func TestLimitDoesNotMutateInput(t *testing.T) {
	g := NewPayloadGuard(4)
	payload := map[string]interface{}{"text": "original value"}

	g.Limit(payload)

	assert.Equal(t, "original value", payload["text"])
}

func TestLimitIsIdempotent(t *testing.T) {
	g := NewPayloadGuard(8)
	payload := map[string]interface{}{
		"a": strings.Repeat("z", 100),
		"b": []interface{}{strings.Repeat("q", 9)},
	}

	once := g.Limit(payload)
	twice := g.Limit(once)

	assert.Equal(t, once, twice)
}

func TestLimitNonContainerPassthrough(t *testing.T) {
	g := NewPayloadGuard(3)

	assert.Equal(t, 42, g.Limit(42))
	assert.Equal(t, 3.14, g.Limit(3.14))
	assert.Equal(t, true, g.Limit(true))
	assert.Nil(t, g.Limit(nil))
}

func TestLimitDisabledWhenNonPositive(t *testing.T) {
	g := NewPayloadGuard(0)
	long := strings.Repeat("x", 1000)

	assert.Equal(t, long, g.Limit(long))
}
