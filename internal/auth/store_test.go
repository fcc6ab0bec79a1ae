package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingKV wraps a MemoryStore and fails the operations switched on.
type failingKV struct {
	*database.MemoryStore
	failGet, failSet, failDelete bool
}

var errBackend = errors.New("backend down")

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errBackend
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errBackend
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errBackend
	}
	return f.MemoryStore.Delete(ctx, key)
}

func TestStoreStartsLoggedOut(t *testing.T) {
	store := NewStore(context.Background(), database.NewMemoryStore(), WithDelay(0))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}

func TestStoreLoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	kv := database.NewMemoryStore()
	store := NewStore(ctx, kv, WithDelay(0))

	user, err := store.Login(ctx, "farmer@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", user.Email)

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"farmer@example.com"}`, string(raw))

	restored := NewStore(ctx, kv, WithDelay(0))
	got, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestStoreSignupIgnoresPassword(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, database.NewMemoryStore(), WithDelay(0))

	user, err := store.Signup(ctx, "new@example.com", "")
	require.NoError(t, err)
	got, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestStoreLoginReplacesUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, database.NewMemoryStore(), WithDelay(0))

	_, err := store.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = store.Login(ctx, "b@example.com", "secret2")
	require.NoError(t, err)

	got, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "b@example.com", got.Email)
}

func TestStoreLogout(t *testing.T) {
	ctx := context.Background()
	kv := database.NewMemoryStore()
	store := NewStore(ctx, kv, WithDelay(0))

	_, err := store.Login(ctx, "farmer@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, store.Logout(ctx))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
	_, err = kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// Logging out twice is harmless.
	assert.NoError(t, store.Logout(ctx))
}

func TestStoreCorruptEntryIsCleared(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"not json":    `{"email":`,
		"empty email": `{"email":""}`,
		"wrong shape": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := database.NewMemoryStore()
			require.NoError(t, kv.Set(ctx, StorageKey, []byte(raw)))

			store := NewStore(ctx, kv, WithDelay(0))
			_, ok := store.CurrentUser()
			assert.False(t, ok)

			_, err := kv.Get(ctx, StorageKey)
			assert.ErrorIs(t, err, database.ErrNotFound)
		})
	}
}

func TestStoreReadErrorStartsLoggedOut(t *testing.T) {
	kv := &failingKV{MemoryStore: database.NewMemoryStore(), failGet: true}
	store := NewStore(context.Background(), kv, WithDelay(0))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}

func TestStoreWriteErrorLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryStore: database.NewMemoryStore()}
	store := NewStore(ctx, kv, WithDelay(0))

	_, err := store.Login(ctx, "first@example.com", "secret")
	require.NoError(t, err)

	kv.failSet = true
	_, err = store.Login(ctx, "second@example.com", "secret")
	require.ErrorIs(t, err, errBackend)

	got, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "first@example.com", got.Email)
}

func TestStoreLogoutClearsStateOnDeleteError(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryStore: database.NewMemoryStore()}
	store := NewStore(ctx, kv, WithDelay(0))

	_, err := store.Login(ctx, "farmer@example.com", "secret")
	require.NoError(t, err)

	kv.failDelete = true
	assert.ErrorIs(t, store.Logout(ctx), errBackend)

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}

func TestStoreDelayHonoursContext(t *testing.T) {
	store := NewStore(context.Background(), database.NewMemoryStore(), WithDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := store.Login(ctx, "farmer@example.com", "secret")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}

func TestStoreDelayIsApplied(t *testing.T) {
	store := NewStore(context.Background(), database.NewMemoryStore(), WithDelay(30*time.Millisecond))

	start := time.Now()
	_, err := store.Login(context.Background(), "farmer@example.com", "secret")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, database.NewMemoryStore(), WithDelay(0))

	type event struct {
		email    string
		loggedIn bool
	}
	var events []event
	store.Subscribe(func(u User, loggedIn bool) {
		events = append(events, event{u.Email, loggedIn})
	})

	_, err := store.Signup(ctx, "farmer@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, store.Logout(ctx))

	assert.Equal(t, []event{
		{"farmer@example.com", true},
		{"", false},
	}, events)
}

// gatedKV parks the Set call for one email after it has been written.
type gatedKV struct {
	*database.MemoryStore
	gate    string
	written chan struct{}
	release chan struct{}
}

func (g *gatedKV) Set(ctx context.Context, key string, value []byte) error {
	if err := g.MemoryStore.Set(ctx, key, value); err != nil {
		return err
	}
	if strings.Contains(string(value), g.gate) {
		close(g.written)
		<-g.release
	}
	return nil
}

func TestStoreConcurrentLoginsKeepPersistedStateInSync(t *testing.T) {
	ctx := context.Background()
	kv := &gatedKV{
		MemoryStore: database.NewMemoryStore(),
		gate:        "first@example.com",
		written:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	store := NewStore(ctx, kv, WithDelay(0))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.Login(ctx, "first@example.com", "x")
		assert.NoError(t, err)
	}()
	<-kv.written

	go func() {
		defer wg.Done()
		_, err := store.Login(ctx, "second@example.com", "x")
		assert.NoError(t, err)
	}()

	// The second login must wait for the first transition to finish.
	assert.Never(t, func() bool {
		raw, err := kv.MemoryStore.Get(ctx, StorageKey)
		return err == nil && strings.Contains(string(raw), "second@example.com")
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(kv.release)
	wg.Wait()

	user, ok := store.CurrentUser()
	require.True(t, ok)
	raw, err := kv.MemoryStore.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"`+user.Email+`"}`, string(raw))
	assert.Equal(t, "second@example.com", user.Email)
}
