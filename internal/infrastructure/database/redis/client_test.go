package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
)

func newMockedClient(t *testing.T) (*Client, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return &Client{rdb: db, logger: logging.NewNopLogger()}, mock
}

func TestClientCloseIsIdempotent(t *testing.T) {
	client, _ := newMockedClient(t)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}

func TestClosedClientRejectsCommands(t *testing.T) {
	client, _ := newMockedClient(t)
	require.NoError(t, client.Close())
	ctx := context.Background()

	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.Get(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "k").Err(), ErrClientClosed)
}

func TestClientPing(t *testing.T) {
	client, mock := newMockedClient(t)
	mock.ExpectPing().SetVal("PONG")

	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
