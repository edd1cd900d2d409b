package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDevBuildsWithoutError(t *testing.T) {
	log := Dev()
	assert.NotNil(t, log)
}

func TestForSelectsDevForDevEnv(t *testing.T) {
	assert.NotPanics(t, func() { _ = For("dev") })
	assert.NotPanics(t, func() { _ = For("production") })

	// Dev logs at debug level; Release starts at info.
	assert.True(t, For("dev").Core().Enabled(zap.DebugLevel))
	assert.False(t, For("production").Core().Enabled(zap.DebugLevel))
}
