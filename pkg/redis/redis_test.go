package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSetWithExpiration(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	mock.ExpectHSet("progress:1", "rc", 40).SetVal(1)
	mock.ExpectExpire("progress:1", time.Minute).SetVal(true)

	require.NoError(t, client.HSetWithExpiration(ctx, "progress:1", "rc", 40, time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHSetWithExpirationStopsOnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectHSet("progress:1", "rc", 40).SetErr(errors.New("READONLY"))

	err := client.HSetWithExpiration(context.Background(), "progress:1", "rc", 40, time.Minute)
	assert.EqualError(t, err, "READONLY")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStringMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectGet("vehicle:x").RedisNil()

	_, err := client.GetString(context.Background(), "vehicle:x")
	assert.True(t, IsNil(err))
}

func TestExists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectExists("vehicle:x").SetVal(1)
	ok, err := client.Exists(context.Background(), "vehicle:x")
	require.NoError(t, err)
	assert.True(t, ok)
}
