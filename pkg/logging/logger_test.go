package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	logger := logging.Default()
	require.NotNil(t, logger)
}

func TestTestLoggerCapture(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Info().Str("session_id", "sess-42").Msg("validation complete")

	assert.True(t, tl.Contains("sess-42"))
	assert.True(t, tl.Contains("validation complete"))
}

func TestContextRoundTrip(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	got := logging.FromContext(ctx)
	require.NotNil(t, got)
	got.Info().Msg("from context")
	assert.True(t, tl.Contains("from context"))
}

func TestFromContextFallsBack(t *testing.T) {
	assert.NotNil(t, logging.FromContext(context.Background()))
	assert.NotNil(t, logging.FromContext(nil)) //nolint:staticcheck // verifying nil safety
}

func TestWithSession(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithSession(ctx, "sess-7")

	logging.Ctx(ctx).Info().Msg("committing")
	assert.True(t, tl.Contains("sess-7"))
}
