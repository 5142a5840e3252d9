package trusteddevice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walleto-api/internal/domain"
	pkgtoken "github.com/walleto-api/internal/pkg/token"
)

// memDevices mirrors the conditional semantics of the DynamoDB repo.
type memDevices struct {
	mu      sync.Mutex
	devices map[string]*domain.TrustedDevice
}

func newMemDevices() *memDevices { return &memDevices{devices: map[string]*domain.TrustedDevice{}} }

func (m *memDevices) Put(_ context.Context, d *domain.TrustedDevice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[d.TokenHash]; ok {
		return domain.ErrConflict
	}
	cp := *d
	m.devices[d.TokenHash] = &cp
	return nil
}

func (m *memDevices) Touch(_ context.Context, hash, userID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[hash]
	if !ok || d.UserID != userID || !d.Active || !d.ExpiresAt.After(now) {
		return false, nil
	}
	d.LastUsedAt = now
	return true, nil
}

func (m *memDevices) Revoke(_ context.Context, hash, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[hash]
	if !ok || d.UserID != userID || !d.Active {
		return false, nil
	}
	d.Active = false
	return true, nil
}

func (m *memDevices) ListActive(_ context.Context, userID string, now time.Time) ([]domain.TrustedDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TrustedDevice{}
	for _, d := range m.devices {
		if d.UserID == userID && d.Active && d.ExpiresAt.After(now) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDevices) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, d := range m.devices {
		if d.ExpiresAt.Before(now) {
			delete(m.devices, k)
			n++
		}
	}
	return n, nil
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Put(ctx context.Context, d *domain.TrustedDevice) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockDeviceStore) Touch(ctx context.Context, hash, userID string, now time.Time) (bool, error) {
	args := m.Called(ctx, hash, userID, now)
	return args.Bool(0), args.Error(1)
}
func (m *mockDeviceStore) Revoke(ctx context.Context, hash, userID string) (bool, error) {
	args := m.Called(ctx, hash, userID)
	return args.Bool(0), args.Error(1)
}
func (m *mockDeviceStore) ListActive(ctx context.Context, userID string, now time.Time) ([]domain.TrustedDevice, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).([]domain.TrustedDevice), args.Error(1)
}
func (m *mockDeviceStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newMemService() (Service, *memDevices, *clock) {
	store := newMemDevices()
	c := &clock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(ServiceDeps{DeviceRepo: store, TTL: 30 * 24 * time.Hour, Now: c.now}), store, c
}

var meta = domain.RequestMeta{IPAddress: "10.0.0.9", UserAgent: "Mozilla/5.0"}

func TestIssue_ReturnsTokenOnceAndStoresHash(t *testing.T) {
	svc, store, c := newMemService()

	issued, err := svc.Issue(context.Background(), "u1", meta)
	require.NoError(t, err)
	assert.Len(t, issued.Token, 64)
	assert.Equal(t, c.t.Add(30*24*time.Hour), issued.ExpiresAt)

	_, rawStored := store.devices[issued.Token]
	assert.False(t, rawStored)
	d, ok := store.devices[pkgtoken.Hash(issued.Token)]
	require.True(t, ok)
	assert.Equal(t, "Mozilla/5.0", d.DeviceInfo)
	assert.Equal(t, "10.0.0.9", d.IPAddress)
	assert.True(t, d.Active)
}

func TestValidate_Lifecycle(t *testing.T) {
	svc, _, c := newMemService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)

	assert.True(t, svc.Validate(ctx, "u1", issued.Token))
	assert.False(t, svc.Validate(ctx, "u2", issued.Token), "identity mismatch")
	assert.False(t, svc.Validate(ctx, "u1", "deadbeef"), "unknown token")

	c.t = c.t.Add(31 * 24 * time.Hour)
	assert.False(t, svc.Validate(ctx, "u1", issued.Token), "expired")
}

func TestValidate_RefreshesLastUsedNotExpiry(t *testing.T) {
	svc, store, c := newMemService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)
	c.t = c.t.Add(time.Hour)

	require.True(t, svc.Validate(ctx, "u1", issued.Token))
	d := store.devices[pkgtoken.Hash(issued.Token)]
	assert.Equal(t, c.t, d.LastUsedAt)
	assert.Equal(t, issued.ExpiresAt, d.ExpiresAt)
}

func TestRevoke_ThenValidateFalse(t *testing.T) {
	svc, _, _ := newMemService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)

	found, err := svc.Revoke(ctx, "u1", issued.Token)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, svc.Validate(ctx, "u1", issued.Token))

	found, err = svc.Revoke(ctx, "u1", issued.Token)
	require.NoError(t, err)
	assert.False(t, found, "already revoked")

	found, err = svc.Revoke(ctx, "u1", "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestValidate_StoreErrorReadsFalse(t *testing.T) {
	store := &mockDeviceStore{}
	store.On("Touch", mock.Anything, pkgtoken.Hash("tok"), "u1", mock.AnythingOfType("time.Time")).
		Return(false, assert.AnError)
	svc := NewService(ServiceDeps{DeviceRepo: store, TTL: time.Hour})

	assert.False(t, svc.Validate(context.Background(), "u1", "tok"))
	store.AssertExpectations(t)
}

func TestValidate_EmptyTokenSkipsStore(t *testing.T) {
	store := &mockDeviceStore{}
	svc := NewService(ServiceDeps{DeviceRepo: store, TTL: time.Hour})

	assert.False(t, svc.Validate(context.Background(), "u1", ""))
	store.AssertNotCalled(t, "Touch")
}

func TestCleanup_Idempotent(t *testing.T) {
	svc, _, c := newMemService()
	ctx := context.Background()

	_, err := svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)
	_, err = svc.Issue(ctx, "u2", meta)
	require.NoError(t, err)
	c.t = c.t.Add(31 * 24 * time.Hour)

	n, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList_OnlyActive(t *testing.T) {
	svc, _, _ := newMemService()
	ctx := context.Background()

	a, err := svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)
	_, err = svc.Issue(ctx, "u1", meta)
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, "u1", a.Token)
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
