package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docbase/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testDatabase returns a driver database without a live server behind it; the
// driver connects lazily and the registry never touches the network on the
// Model path.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("docbase_test")
}

func newTestRegistry(t *testing.T) (*Registry, *int64) {
	t.Helper()
	r := NewRegistry(testDatabase(t), logger.NewLoggerWithConfig("error", "text"))

	var provisions int64
	r.provision = func(h *Handle) {
		atomic.AddInt64(&provisions, 1)
	}
	return r, &provisions
}

func TestModelIdentity(t *testing.T) {
	r, _ := newTestRegistry(t)

	h1 := r.Model("widgets")
	h2 := r.Model("widgets")
	other := r.Model("gadgets")

	assert.Same(t, h1, h2)
	assert.NotSame(t, h1, other)
	assert.Equal(t, "widgets", h1.Name())
	assert.Equal(t, "gadgets", other.Name())
}

func TestModelBindsDriverCollection(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := r.Model("widgets")
	require.NotNil(t, h.Collection())
	assert.Equal(t, "widgets", h.Collection().Name())
}

func TestConcurrentFirstAccessCreatesOnce(t *testing.T) {
	r, provisions := newTestRegistry(t)

	const goroutines = 64
	var wg sync.WaitGroup
	handles := make([]*Handle, goroutines)

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			handles[i] = r.Model("widgets")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, handles[0], handles[i], "goroutine %d got a divergent handle", i)
	}

	// Provisioning runs in the background; wait for it, then make sure it
	// never ran a second time.
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(provisions) >= 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(provisions))
}

func TestManyNamesManyHandles(t *testing.T) {
	r, provisions := newTestRegistry(t)

	names := []string{"a", "b", "c", "d"}
	seen := make(map[*Handle]bool)
	for _, name := range names {
		seen[r.Model(name)] = true
	}
	assert.Len(t, seen, len(names))
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(provisions) == int64(len(names))
	}, time.Second, 5*time.Millisecond)
}
