package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
)

// fakeVendor serves canned locks and keys and records open-door calls.
type fakeVendor struct {
	locks     []ringo.Lock
	keys      []ringo.DigitalKey
	listErr   error
	openErr   error
	openedBy  []string
	listCalls int
}

func (f *fakeVendor) ListLocks(ctx context.Context) ([]ringo.Lock, error) {
	f.listCalls++
	return f.locks, f.listErr
}

func (f *fakeVendor) ListKeys(ctx context.Context) ([]ringo.DigitalKey, error) {
	return f.keys, nil
}

func (f *fakeVendor) OpenDoor(ctx context.Context, lockID, relayID int, digitalKey string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.openedBy = append(f.openedBy, digitalKey)
	return nil
}

func newTestPlatform(t *testing.T, vendor *fakeVendor) (*Platform, *storage.LockEntityRepository) {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	entries := storage.NewEntryRepository(db)
	entities := storage.NewLockEntityRepository(db)

	entry := &models.ConfigEntry{Title: "Ringo", Host: "https://dev.ringodoor.com/api", Client: "c", Secret: "s", AutoLockTime: 10}
	require.NoError(t, entries.Create(context.Background(), entry))

	platform := NewPlatform(vendor, entities, nil, entry.ID, entry.AutoLockTime, zerolog.Nop())
	return platform, entities
}

func TestEntityIDFormat(t *testing.T) {
	assert.Equal(t, "lock.ringo_12_3", EntityID(12, 3))
}

func TestSetupRegistersEntities(t *testing.T) {
	vendor := &fakeVendor{locks: []ringo.Lock{
		{LockID: 1, RelayID: 1, Name: "Front door"},
		{LockID: 1, RelayID: 2, Name: "Garage"},
	}}
	platform, entities := newTestPlatform(t, vendor)

	count, err := platform.Setup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	listed := platform.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "lock.ringo_1_1", listed[0].EntityID)
	assert.Equal(t, models.StateLocked, listed[0].State())

	stored, err := entities.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSetupPreservesStoredState(t *testing.T) {
	vendor := &fakeVendor{locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}}}
	platform, entities := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)
	require.NoError(t, entities.UpdateState(context.Background(), "lock.ringo_1_1", models.StateUnlocked))

	// A rediscovery picks the stored state back up.
	_, err = platform.Setup(context.Background())
	require.NoError(t, err)

	entity, ok := platform.Get("lock.ringo_1_1")
	require.True(t, ok)
	assert.Equal(t, models.StateUnlocked, entity.State())
}

func TestUnlockPrefersAssignedKey(t *testing.T) {
	vendor := &fakeVendor{
		locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}},
		keys: []ringo.DigitalKey{
			{DigitalKey: "dk-other", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1},
			{DigitalKey: "dk-assigned", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1},
		},
	}
	platform, entities := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)
	require.NoError(t, entities.AssignKey(context.Background(), "lock.ringo_1_1", "dk-assigned"))

	require.NoError(t, platform.Unlock(context.Background(), "lock.ringo_1_1"))
	require.Len(t, vendor.openedBy, 1)
	assert.Equal(t, "dk-assigned", vendor.openedBy[0])

	entity, _ := platform.Get("lock.ringo_1_1")
	assert.Equal(t, models.StateUnlocked, entity.State())
}

func TestUnlockFallsBackToFirstValidKey(t *testing.T) {
	vendor := &fakeVendor{
		locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}},
		keys: []ringo.DigitalKey{
			{DigitalKey: "dk-ended", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1, IsEnded: 1},
			{DigitalKey: "dk-wrong-lock", Locks: []ringo.LockRef{{LockID: 2, RelayID: 1}}, IsValid: 1},
			{DigitalKey: "dk-good", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1},
		},
	}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)

	require.NoError(t, platform.Unlock(context.Background(), "lock.ringo_1_1"))
	require.Len(t, vendor.openedBy, 1)
	assert.Equal(t, "dk-good", vendor.openedBy[0])
}

func TestUnlockWithoutUsableKey(t *testing.T) {
	vendor := &fakeVendor{
		locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}},
		keys: []ringo.DigitalKey{
			{DigitalKey: "dk-expired", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 0},
		},
	}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)

	err = platform.Unlock(context.Background(), "lock.ringo_1_1")
	assert.ErrorIs(t, err, ringo.ErrNotFound)
	assert.Empty(t, vendor.openedBy)
}

func TestUnlockConnectivityFailureMarksUnavailable(t *testing.T) {
	vendor := &fakeVendor{
		locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}},
		keys: []ringo.DigitalKey{
			{DigitalKey: "dk-1", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1},
		},
		openErr: ringo.ErrConnectivity,
	}
	platform, entities := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)

	err = platform.Unlock(context.Background(), "lock.ringo_1_1")
	assert.ErrorIs(t, err, ringo.ErrConnectivity)

	entity, _ := platform.Get("lock.ringo_1_1")
	assert.Equal(t, models.StateUnavailable, entity.State())

	stored, err := entities.GetByEntityID(context.Background(), "lock.ringo_1_1")
	require.NoError(t, err)
	assert.Equal(t, models.StateUnavailable, stored.State)
}

func TestLockCancelsAutoRelock(t *testing.T) {
	vendor := &fakeVendor{
		locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}},
		keys: []ringo.DigitalKey{
			{DigitalKey: "dk-1", Locks: []ringo.LockRef{{LockID: 1, RelayID: 1}}, IsValid: 1},
		},
	}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)

	require.NoError(t, platform.Unlock(context.Background(), "lock.ringo_1_1"))
	require.NoError(t, platform.Lock(context.Background(), "lock.ringo_1_1"))

	entity, _ := platform.Get("lock.ringo_1_1")
	assert.Equal(t, models.StateLocked, entity.State())

	entity.mu.Lock()
	timer := entity.timer
	entity.mu.Unlock()
	assert.Nil(t, timer, "pending auto-relock must be cancelled")
}

func TestAutoRelockTimer(t *testing.T) {
	vendor := &fakeVendor{locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}}}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)

	entity, _ := platform.Get("lock.ringo_1_1")
	entity.setState(models.StateUnlocked)
	entity.armTimer(10*time.Millisecond, func() { platform.autoRelock(entity) })

	require.Eventually(t, func() bool {
		return entity.State() == models.StateLocked
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshMarksUnavailableAndRecovers(t *testing.T) {
	vendor := &fakeVendor{locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}}}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)
	entity, _ := platform.Get("lock.ringo_1_1")

	vendor.listErr = ringo.ErrConnectivity
	platform.Refresh(context.Background())
	assert.Equal(t, models.StateUnavailable, entity.State())

	vendor.listErr = nil
	vendor.locks[0].Name = "Front door (renamed)"
	platform.Refresh(context.Background())
	assert.Equal(t, models.StateLocked, entity.State())
	assert.Equal(t, "Front door (renamed)", entity.Name())
}

func TestRefreshSkipsEntitiesWithMutationInFlight(t *testing.T) {
	vendor := &fakeVendor{locks: []ringo.Lock{{LockID: 1, RelayID: 1, Name: "Front door"}}}
	platform, _ := newTestPlatform(t, vendor)

	_, err := platform.Setup(context.Background())
	require.NoError(t, err)
	entity, _ := platform.Get("lock.ringo_1_1")

	entity.op.Lock()
	vendor.listErr = ringo.ErrConnectivity
	platform.Refresh(context.Background())
	entity.op.Unlock()

	assert.Equal(t, models.StateLocked, entity.State(), "busy entity is left untouched")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "front_door", slugify("Front Door"))
	assert.Equal(t, "garaa", slugify("Garaža"))
}
