package support

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/domain"
)

func TestExtractName(t *testing.T) {
	assert.Equal(t, "Sam", ExtractName("hi, my name is sam and I'm sad"))
	assert.Equal(t, "Zoë", ExtractName("Call me ZOË"))
	assert.Equal(t, "", ExtractName("my name is"))
	assert.Equal(t, "", ExtractName("hello"))
}

func TestObserveKeepsLastConcerns(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var m UserMemory
	m = m.Observe("my name is Ana", domain.IntentDefault, now)
	for i := 0; i < 12; i++ {
		m = m.Observe("I feel sad", domain.IntentSad, now)
	}
	m = m.Observe("so anxious", domain.IntentAnxious, now)

	assert.Equal(t, "Ana", m.Name)
	assert.Equal(t, 14, m.MessageCount)
	require.Len(t, m.Concerns, maxConcerns)
	assert.Equal(t, domain.IntentAnxious, m.Concerns[maxConcerns-1])
	assert.Equal(t, domain.IntentSad, m.Concerns[0])
}

func TestLocalMemoryExpires(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewLocalMemory(time.Hour)
	mem.now = func() time.Time { return start }

	require.NoError(t, mem.Put(ctx, "u", UserMemory{Name: "Ana", LastSeen: start}))
	got, err := mem.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	mem.now = func() time.Time { return start.Add(2 * time.Hour) }
	got, err = mem.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, UserMemory{}, got)
	assert.Equal(t, 0, mem.Len())
}

func TestLocalMemorySweepsIdleUsersOnWrite(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewLocalMemory(time.Hour)
	mem.now = func() time.Time { return start }

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, mem.Put(ctx, id, UserMemory{LastSeen: start}))
	}
	assert.Equal(t, 3, mem.Len())

	later := start.Add(2 * time.Hour)
	mem.now = func() time.Time { return later }
	require.NoError(t, mem.Put(ctx, "d", UserMemory{LastSeen: later}))
	assert.Equal(t, 1, mem.Len())
}

func TestLocalMemoryEvictsLeastRecentBeyondCap(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewLocalMemory(0)
	mem.maxUsers = 2

	require.NoError(t, mem.Put(ctx, "old", UserMemory{Name: "Old", LastSeen: start}))
	require.NoError(t, mem.Put(ctx, "mid", UserMemory{Name: "Mid", LastSeen: start.Add(time.Minute)}))
	require.NoError(t, mem.Put(ctx, "new", UserMemory{Name: "New", LastSeen: start.Add(2 * time.Minute)}))

	assert.Equal(t, 2, mem.Len())
	got, err := mem.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, UserMemory{}, got)
	got, err = mem.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
}

func TestRedisMemory(t *testing.T) {
	url := os.Getenv("SAFEFEED_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SAFEFEED_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	mem, err := NewRedisMemory(ctx, url, time.Minute)
	require.NoError(t, err)
	defer mem.Close()

	userID := "test-" + time.Now().Format("150405.000000")
	got, err := mem.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MessageCount)

	want := UserMemory{}.Observe("my name is Lee", domain.IntentDefault, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, mem.Put(ctx, userID, want))
	got, err = mem.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Lee", got.Name)
	assert.Equal(t, 1, got.MessageCount)
	assert.Equal(t, []domain.IntentCategory{domain.IntentDefault}, got.Concerns)
}
