package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

type countingFeedAPI struct {
	stubAPI
	publicCalls int
	items       []models.Announcement
	total       int
}

func (a *countingFeedAPI) ListPublic(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error) {
	a.publicCalls++
	return a.items, a.total, nil
}

func TestFeedListCachesPages(t *testing.T) {
	api := &countingFeedAPI{
		items: []models.Announcement{{ID: "1", Title: "Wash windows", RawStatus: "active"}},
		total: 41,
	}
	cache := newMemoryCache()
	svc := NewFeedService(api, cache, time.Minute, true, nil, zap.NewNop())

	items, pagination, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 41, pagination.TotalCount)
	assert.Equal(t, 1, api.publicCalls)
	assert.Equal(t, 1, cache.sets)

	// second read of the same page is served from cache
	items, _, err = svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wash windows", items[0].Title)
	assert.Equal(t, 1, api.publicCalls)

	// a different page is its own key
	_, _, err = svc.List(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, api.publicCalls)
}

func TestFeedListClampsPaging(t *testing.T) {
	api := &countingFeedAPI{}
	svc := NewFeedService(api, nil, time.Minute, false, nil, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), -3, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestFeedListWithoutCache(t *testing.T) {
	api := &countingFeedAPI{items: []models.Announcement{{ID: "1"}}, total: 1}
	svc := NewFeedService(api, nil, time.Minute, true, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, _, err := svc.List(context.Background(), 1, 20)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, api.publicCalls, "no cache, every read goes upstream")
}
