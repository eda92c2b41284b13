package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpilot/agentpilot/logging"
)

func TestCamelKey(t *testing.T) {
	cases := map[string]string{
		"screen-capture":     "screenCapture",
		"ocr.service":        "ocrService",
		"llm":                "llm",
		"multi-part-name":    "multiPartName",
		"dotted.and-hyphens": "dottedAndHyphens",
	}
	for id, want := range cases {
		assert.Equal(t, want, CamelKey(id), id)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(logging.NoOpLogger{})
	r.Register("screen-capture", "capture-impl")
	r.Register("ocr.service", "ocr-impl")

	deps := r.Resolve([]string{"screen-capture", "ocr.service"})

	assert.Equal(t, map[string]any{
		"screenCapture": "capture-impl",
		"ocrService":    "ocr-impl",
	}, deps)
}

func TestResolver_Resolve_SkipsMissing(t *testing.T) {
	r := NewResolver(logging.NoOpLogger{})
	r.Register("present", 1)

	deps := r.Resolve([]string{"present", "absent"})

	assert.Equal(t, map[string]any{"present": 1}, deps)
	_, ok := deps["absent"]
	assert.False(t, ok)
}

func TestResolver_RegisterReplacesAndRemove(t *testing.T) {
	r := NewResolver(nil)
	r.Register("cap", "v1")
	r.Register("cap", "v2")

	v, ok := r.Lookup("cap")
	require.True(t, ok)
	assert.Equal(t, "v2", v)

	r.Remove("cap")
	_, ok = r.Lookup("cap")
	assert.False(t, ok)
}
