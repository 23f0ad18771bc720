package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	list := []any{"provider", "google", "count", 3, "user_id", "u-1", "dangling"}

	assert.Equal(t, "google", ExtractString(list, "provider"))
	assert.Equal(t, "u-1", ExtractString(list, "user_id"))
	assert.Equal(t, "", ExtractString(list, "count"))
	assert.Equal(t, "", ExtractString(list, "dangling"))
	assert.Equal(t, "", ExtractString(nil, "provider"))
}
