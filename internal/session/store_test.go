package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

func sampleSession() *models.GenerationSession {
	s := models.NewGenerationSession("a9c3d0b6-1f7e-4e0a-8c55-0b1d2e3f4a5b")
	s.State = models.StateExtracting
	s.Query = &models.SearchQuery{Brand: "Xerjoff", Model: "Naxos", AllowedSites: []string{"luckyscent.com"}}
	s.Search = &models.SearchResult{URL: "https://luckyscent.com/naxos", Snippet: "honey"}
	s.Page = &models.ScrapedPage{URL: "https://luckyscent.com/naxos", Text: "Naxos"}
	return s
}

// ==========================
// Memory Store
// ==========================

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateExtracting, loaded.State)
	assert.True(t, loaded.CanGenerate())

	loaded.Draft = "changed"
	again, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Draft, "loaded sessions are copies")

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(50 * time.Millisecond)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	require.Eventually(t, func() bool {
		_, err := store.Load(ctx, s.ID)
		return errors.Is(err, ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryStore_SaveRefreshesTTL(t *testing.T) {
	store := NewMemoryStore(300 * time.Millisecond)
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))
	for i := 0; i < 4; i++ {
		time.Sleep(150 * time.Millisecond)
		require.NoError(t, store.Save(ctx, s))
	}

	// 600ms after the first save, still present because every save slid the expiry
	_, err := store.Load(ctx, s.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_NoSizeBound(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	ids := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		s := models.NewGenerationSession(NewID())
		require.NoError(t, store.Save(ctx, s))
		ids = append(ids, s.ID)
	}
	_, err := store.Load(ctx, ids[0])
	assert.NoError(t, err, "oldest visitor is never evicted for size")
}

func TestLoadOrCreate(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	fresh, err := LoadOrCreate(ctx, store, "")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.ID)
	assert.Equal(t, models.StateIdle, fresh.State)

	unknown, err := LoadOrCreate(ctx, store, "missing")
	require.NoError(t, err)
	assert.NotEqual(t, "missing", unknown.ID)

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))
	existing, err := LoadOrCreate(ctx, store, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, existing.ID)
}

// ==========================
// Redis Store
// ==========================

func TestRedisStore_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, 30*time.Minute)
	ctx := context.Background()
	s := sampleSession()

	require.NoError(t, store.Save(ctx, s))
	assert.True(t, mr.Exists(keyPrefix+s.ID))
	assert.Equal(t, 30*time.Minute, mr.TTL(keyPrefix+s.ID))

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://luckyscent.com/naxos", loaded.Search.URL)

	mr.FastForward(31 * time.Minute)
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	s := sampleSession()

	mock.ExpectGet(keyPrefix + "broken").SetErr(errors.New("connection refused"))
	_, err := store.Load(ctx, "broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &apperrors.StandardError{Code: apperrors.ErrCodeSessionStoreFailed}))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	mock.ExpectSet(keyPrefix+s.ID, data, time.Minute).SetErr(errors.New("READONLY"))
	err = store.Save(ctx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")

	mock.ExpectDel(keyPrefix + s.ID).SetVal(1)
	require.NoError(t, store.Delete(ctx, s.ID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadOrCreateSurfacesStoreErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Minute)

	mock.ExpectGet(keyPrefix + "abc").SetErr(errors.New("i/o timeout"))
	_, err := LoadOrCreate(context.Background(), store, "abc")
	assert.Error(t, err)
}
