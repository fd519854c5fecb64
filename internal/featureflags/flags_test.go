package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(StrictJSON))

	for _, v := range []string{"1", "TRUE", " yes ", "on"} {
		t.Setenv("FLAG_STRICT_JSON", v)
		assert.True(t, Enabled("strict_json"), v)
	}
	t.Setenv("FLAG_STRICT_JSON", "nope")
	assert.False(t, Enabled(StrictJSON))
}

func TestSnapshot(t *testing.T) {
	t.Setenv("FLAG_STRICT_JSON", "1")
	assert.Equal(t, map[string]bool{StrictJSON: true}, Snapshot())
}
