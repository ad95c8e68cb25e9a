package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetBeforeInitializeIsNoop(t *testing.T) {
	Reset()
	l := Get(CategoryBench)
	require.NotNil(t, l)
	l.Infow("dropped")
	assert.False(t, IsCategoryEnabled(CategoryBench))
}

func TestCategoriesAreNamedAndFiltered(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Initialize(zap.New(core), map[string]bool{"sim": false})
	defer Reset()

	Get(CategoryBench).Infow("run finished", "households", 32768)
	Get(CategorySim).Infow("hidden")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bench", entries[0].LoggerName)
	assert.Equal(t, "run finished", entries[0].Message)
	assert.True(t, IsCategoryEnabled(CategoryCompare))
	assert.False(t, IsCategoryEnabled(CategorySim))
}

func TestBuild(t *testing.T) {
	l, err := Build("warn", "console", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = Build("warn", "json", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = Build("loud", "json", false)
	assert.Error(t, err)
}
