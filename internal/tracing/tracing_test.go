package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{ServiceName: "rrweb-server", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tp)

	ctx, span := StartSpan(context.Background(), "ingest")
	assert.NotNil(t, ctx)
	span.End()

	assert.NoError(t, tp.Shutdown(context.Background()))
}
