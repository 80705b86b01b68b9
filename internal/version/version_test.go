package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	assert.True(t, strings.HasPrefix(FullVersion(), "v"))
	assert.Equal(t, Version, strings.TrimPrefix(FullVersion(), "v"))
}
