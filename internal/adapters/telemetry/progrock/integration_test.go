package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/adapters/telemetry/progrock"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestVertexDigest(t *testing.T) {
	assert.Equal(t, progrock.VertexDigest("boost: options"), progrock.VertexDigest("boost: options"))
	assert.NotEqual(t, progrock.VertexDigest("boost: options"), progrock.VertexDigest("boost: deps"))
}

func TestRecorder_Integration(t *testing.T) {
	recorder := progrock.New()

	ctx, options := recorder.Record(context.Background(), "boost: options")

	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, options, fromCtx)

	_, err := options.Stdout().Write([]byte("Standard Output\n"))
	require.NoError(t, err)
	options.Log(domain.LogLevelDebug, "debug msg")
	options.Complete(nil)

	_, constraints := recorder.Record(ctx, "boost: constraints", ports.WithInputs("boost: options"))
	_, err = constraints.Stderr().Write([]byte("rejected\n"))
	require.NoError(t, err)
	constraints.Complete(errors.New("unsupported toolchain"))

	_, cached := recorder.Record(ctx, "libsoxr: plan")
	cached.Cached()
	cached.Complete(nil)

	require.NoError(t, recorder.Close())
}
