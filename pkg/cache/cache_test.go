package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redisclient "github.com/richxcame/fleet/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vehicleView struct {
	ID   string   `json:"id"`
	Docs []string `json:"docs"`
}

func newTestManager() (*Manager, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewManager(redisclient.Wrap(db)), mock
}

func TestManagerGet(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectGet("fleet:vehicle:1").SetVal(`{"id":"1","docs":["a.pdf"]}`)

	var got vehicleView
	require.NoError(t, m.Get(context.Background(), Keys.Vehicle("1"), &got))
	assert.Equal(t, vehicleView{ID: "1", Docs: []string{"a.pdf"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerGetMiss(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectGet("fleet:vehicle:1").RedisNil()

	var got vehicleView
	err := m.Get(context.Background(), Keys.Vehicle("1"), &got)
	assert.True(t, redisclient.IsNil(err))
}

func TestManagerSet(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectSet("fleet:vehicle:1", `{"id":"1","docs":[]}`, time.Minute).SetVal("OK")

	err := m.Set(context.Background(), Keys.Vehicle("1"), vehicleView{ID: "1", Docs: []string{}}, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerSetMarshalError(t *testing.T) {
	m, _ := newTestManager()
	err := m.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.ErrorContains(t, err, "failed to marshal cache value")
}

func TestManagerGetOrSet(t *testing.T) {
	t.Run("hit skips loader", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").SetVal(`{"id":"cached"}`)

		var got vehicleView
		err := m.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) {
			t.Fatal("loader must not run on a hit")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "cached", got.ID)
	})

	t.Run("miss loads and stores", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").RedisNil()
		mock.ExpectSet("k", `{"id":"loaded","docs":null}`, time.Minute).SetVal("OK")

		var got vehicleView
		err := m.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) {
			return vehicleView{ID: "loaded"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "loaded", got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure is not fatal", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").RedisNil()
		mock.ExpectSet("k", `{"id":"loaded","docs":null}`, time.Minute).SetErr(errors.New("OOM"))

		var got vehicleView
		err := m.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) {
			return vehicleView{ID: "loaded"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "loaded", got.ID)
	})

	t.Run("loader error", func(t *testing.T) {
		m, mock := newTestManager()
		mock.ExpectGet("k").RedisNil()

		var got vehicleView
		err := m.GetOrSet(context.Background(), "k", time.Minute, &got, func() (interface{}, error) {
			return nil, errors.New("db down")
		})
		assert.EqualError(t, err, "db down")
	})
}

func TestManagerDelete(t *testing.T) {
	m, mock := newTestManager()
	mock.ExpectDel("fleet:vehicle:1").SetVal(1)

	require.NoError(t, m.Delete(context.Background(), Keys.Vehicle("1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "fleet:vehicle:abc", Keys.Vehicle("abc"))
	assert.Equal(t, "fleet:upload-progress:abc", Keys.UploadProgress("abc"))
}
