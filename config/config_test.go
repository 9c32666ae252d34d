package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE", "")
	t.Setenv("MAX_MESSAGE_LENGTH", "")
	t.Setenv("HISTORY_MAX_TAKE", "")

	cfg := Load()
	require.Equal(t, ":8080", cfg.ServerAddr)
	require.Equal(t, "mysql", cfg.Storage)
	require.Equal(t, 4000, cfg.MaxMessageLength)
	require.Equal(t, 200, cfg.HistoryMaxTake)
	require.Equal(t, "duochat:direct-messages", cfg.ValkeyChannel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", "memory")
	t.Setenv("VALKEY_ADDR", "localhost:6379")
	t.Setenv("HISTORY_MAX_TAKE", "25")
	t.Setenv("SEND_BURST", "not-a-number")

	cfg := Load()
	require.Equal(t, ":9090", cfg.ServerAddr)
	require.Equal(t, "memory", cfg.Storage)
	require.Equal(t, "localhost:6379", cfg.ValkeyAddr)
	require.Equal(t, 25, cfg.HistoryMaxTake)
	require.Equal(t, 10, cfg.SendBurst)
}
