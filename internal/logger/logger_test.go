package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/logistics/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName: "logistics",
		Environment: "test",
		LogLevel:    "warn",
		LogEncoding: "json",
	}}

	log, err := New(lc, cfg)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	lc.RequireStart().RequireStop()
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{LogLevel: "loud", LogEncoding: "console"}}

	log, err := New(lc, cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}

func TestComponent(t *testing.T) {
	assert.NotNil(t, Component(nil, "repo"))

	core, logs := observer.New(zap.InfoLevel)
	Component(zap.New(core), "repository").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "repository", logs.All()[0].LoggerName)
}
