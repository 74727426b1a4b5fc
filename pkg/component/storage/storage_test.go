package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	name    string
	pingErr error
	closed  bool
}

func (f *fakeClient) Name() string                   { return f.name }
func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error                   { f.closed = true; return nil }
func (f *fakeClient) Health() HealthChecker {
	return func(ctx context.Context) error { return f.pingErr }
}

func TestManagerRegisterAndGet(t *testing.T) {
	mgr := NewManager()

	require.NoError(t, mgr.Register("pg", &fakeClient{name: "postgres"}))
	assert.True(t, mgr.Has("pg"))

	client, err := mgr.Get("pg")
	require.NoError(t, err)
	assert.Equal(t, "postgres", client.Name())

	_, err = mgr.Get("missing")
	assert.Error(t, err)
}

func TestManagerRejectsDuplicates(t *testing.T) {
	mgr := NewManager()

	require.NoError(t, mgr.Register("pg", &fakeClient{name: "postgres"}))
	assert.Error(t, mgr.Register("pg", &fakeClient{name: "postgres"}))
	assert.Error(t, mgr.Register("", &fakeClient{name: "postgres"}))
	assert.Error(t, mgr.Register("nil", nil))
}

func TestManagerHealthCheckAll(t *testing.T) {
	mgr := NewManager()
	require.NoError(t, mgr.Register("pg", &fakeClient{name: "postgres"}))
	require.NoError(t, mgr.Register("cache", &fakeClient{name: "redis", pingErr: errors.New("down")}))

	statuses := mgr.HealthCheckAll(context.Background())
	require.Len(t, statuses, 2)
	assert.True(t, statuses["pg"].Healthy)
	assert.False(t, statuses["cache"].Healthy)
	assert.False(t, mgr.AllHealthy(context.Background()))
}

func TestManagerCloseAll(t *testing.T) {
	pg := &fakeClient{name: "postgres"}
	mgr := NewManager()
	require.NoError(t, mgr.Register("pg", pg))

	require.NoError(t, mgr.CloseAll())
	assert.True(t, pg.closed)
	assert.False(t, mgr.Has("pg"))
}
