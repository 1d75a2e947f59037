package infra

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, PingRedis(context.Background(), c))

	mr.Close()
	assert.Error(t, PingRedis(context.Background(), c))
}
