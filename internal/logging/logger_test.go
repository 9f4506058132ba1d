package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesAtLevel(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(zerolog.Nop()) })

	var buf bytes.Buffer
	Configure(&buf, zerolog.InfoLevel)

	Debug().Msg("hidden")
	Info().Str("table", "orders").Msg("leaf added")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "leaf added")
	require.Contains(t, out, "orders")
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(zerolog.Nop())
	t.Cleanup(func() { SetGlobalLogger(zerolog.Nop()) })

	Error().Msg("should not appear")
	require.Equal(t, "", strings.TrimSpace(buf.String()))
}
