package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	log, err := NewLogger(false)
	require.NoError(t, err)
	require.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	require.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))

	log, err = NewLogger(true)
	require.NoError(t, err)
	require.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NotNil(t, Nop())
}
