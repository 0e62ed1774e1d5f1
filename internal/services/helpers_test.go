package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/caching"
	"ecoverse/internal/pkg/locker"

	"github.com/samber/do"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Identity{UserID: "alice", Role: models.RoleUser}
	bob   = models.Identity{UserID: "bob", Role: models.RoleUser}
	admin = models.Identity{UserID: "root", Role: models.RoleAdmin}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	injector *do.Injector
	store    *datastore.MemoryStore
	clock    *fakeClock
}

// newTestEnv wires the services over an in-memory store, a process lock and
// a local cache. envs overrides configuration values.
func newTestEnv(t *testing.T, envs map[string]string) *testEnv {
	t.Helper()

	if envs == nil {
		envs = map[string]string{}
	}

	injector := do.New()
	store := datastore.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)}

	cache, err := caching.NewCacheRedis(nil, true)
	require.NoError(t, err)

	do.ProvideNamedValue(injector, "envs", envs)
	do.ProvideValue[datastore.Store](injector, store)
	do.ProvideValue[interfaces.Locker](injector, locker.NewLocal())
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[Clock](injector, clock.Now)
	ProvideServices(injector)

	return &testEnv{injector, store, clock}
}

func invoke[T any](t *testing.T, env *testEnv) T {
	t.Helper()
	service, err := do.Invoke[T](env.injector)
	require.NoError(t, err)
	return service
}

func (env *testEnv) seedRewards(t *testing.T) {
	t.Helper()
	_, err := invoke[*ServiceCatalog](t, env).Seed(context.Background())
	require.NoError(t, err)
}

func (env *testEnv) credit(t *testing.T, userID string, amount int) {
	t.Helper()
	_, err := invoke[*ServiceLedger](t, env).Credit(context.Background(), userID, amount, models.Transaction{
		Kind:     models.KindWasteClassification,
		Metadata: models.TransactionMetadata{Category: CATEGORY_E_WASTE},
	})
	require.NoError(t, err)
}

// requireConserved checks that each user's balance equals the sum of their deltas.
func (env *testEnv) requireConserved(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	users, err := datastore.GetUsers(ctx, env.store)
	require.NoError(t, err)
	transactions, err := datastore.GetTransactions(ctx, env.store)
	require.NoError(t, err)

	sums := map[string]int{}
	for _, tx := range transactions {
		sums[tx.User] += tx.PointsDelta
	}
	for id, user := range users {
		require.Equalf(t, sums[id], user.Points, "balance of %s", id)
		require.GreaterOrEqualf(t, user.Points, 0, "balance of %s", id)
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	sent  chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 16)}
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, text string) error {
	n.mu.Lock()
	n.texts = append(n.texts, text)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}
