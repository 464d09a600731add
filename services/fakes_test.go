package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"biodata-platform/internal/searchindex"
	"biodata-platform/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// memBiodataStore mimics the Mongo store closely enough for service tests:
// updates go through bson so omitempty decides what a patch sets.
type memBiodataStore struct {
	mu   sync.Mutex
	docs map[string]models.Biodata
	err  error
}

func newMemBiodataStore() *memBiodataStore {
	return &memBiodataStore{docs: map[string]models.Biodata{}}
}

func (m *memBiodataStore) Insert(_ context.Context, b *models.Biodata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, d := range m.docs {
		if d.UserID == b.UserID {
			return ErrBiodataExists
		}
	}
	m.docs[b.ID] = *b
	return nil
}

func (m *memBiodataStore) InsertMany(_ context.Context, bs []models.Biodata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, b := range bs {
		m.docs[b.ID] = b
	}
	return nil
}

func (m *memBiodataStore) Update(_ context.Context, id string, patch models.Biodata, unset []string) (*models.Biodata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.docs[id]
	if !ok {
		return nil, ErrBiodataNotFound
	}

	merged, err := toM(current)
	if err != nil {
		return nil, err
	}
	set, err := toM(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		merged[k] = v
	}
	for _, k := range unset {
		delete(merged, k)
	}

	raw, err := bson.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var out models.Biodata
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	m.docs[id] = out
	return &out, nil
}

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	return out, bson.Unmarshal(raw, &out)
}

func (m *memBiodataStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrBiodataNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memBiodataStore) GetByID(_ context.Context, id string) (*models.Biodata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[id]
	if !ok {
		return nil, ErrBiodataNotFound
	}
	return &b, nil
}

func (m *memBiodataStore) GetByUserID(_ context.Context, userID string) (*models.Biodata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.docs {
		if b.UserID == userID {
			return &b, nil
		}
	}
	return nil, ErrBiodataNotFound
}

func (m *memBiodataStore) All(context.Context) ([]models.Biodata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Biodata, 0, len(m.docs))
	for _, b := range m.docs {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memBiodataStore) Count(_ context.Context, biodataType string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.docs {
		if biodataType == "" || b.BiodataType == biodataType {
			n++
		}
	}
	return n, nil
}

func (m *memBiodataStore) CountTestData(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.docs {
		if b.IsTestData {
			n++
		}
	}
	return n, nil
}

func (m *memBiodataStore) DeleteTestData(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for id, b := range m.docs {
		if b.IsTestData {
			ids = append(ids, id)
			delete(m.docs, id)
		}
	}
	return ids, nil
}

func (m *memBiodataStore) Distinct(_ context.Context, field string, limit int) ([]string, error) {
	all, _ := m.All(context.Background())
	seen := map[string]bool{}
	out := []string{}
	for _, b := range all {
		d, err := toM(b)
		if err != nil {
			return nil, err
		}
		v, _ := d[field].(string)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]models.User{}}
}

func (m *memUserStore) Get(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Favorites = append([]string(nil), u.Favorites...)
	u.IgnoreList = append([]string(nil), u.IgnoreList...)
	return &u, nil
}

func (m *memUserStore) Upsert(ctx context.Context, u models.User) (*models.User, error) {
	m.mu.Lock()
	existing, ok := m.users[u.ID]
	if ok {
		u.CreatedAt = existing.CreatedAt
		u.Favorites = existing.Favorites
		u.IgnoreList = existing.IgnoreList
		if u.Name == "" {
			u.Name = existing.Name
		}
	}
	m.users[u.ID] = u
	m.mu.Unlock()
	return m.Get(ctx, u.ID)
}

func (m *memUserStore) AddToList(_ context.Context, userID string, list UserList, biodataID string) error {
	return m.edit(userID, list, func(ids []string) []string {
		for _, id := range ids {
			if id == biodataID {
				return ids
			}
		}
		return append(ids, biodataID)
	})
}

func (m *memUserStore) RemoveFromList(_ context.Context, userID string, list UserList, biodataID string) error {
	return m.edit(userID, list, func(ids []string) []string {
		out := ids[:0:0]
		for _, id := range ids {
			if id != biodataID {
				out = append(out, id)
			}
		}
		return out
	})
}

func (m *memUserStore) edit(userID string, list UserList, fn func([]string) []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if list == FavoritesList {
		u.Favorites = fn(u.Favorites)
	} else {
		u.IgnoreList = fn(u.IgnoreList)
	}
	m.users[userID] = u
	return nil
}

// countingClient records bulk import batch sizes.
type countingClient struct {
	searchindex.Client
	mu      sync.Mutex
	batches []int
}

func (c *countingClient) Import(ctx context.Context, collection string, docs []searchindex.Document) error {
	c.mu.Lock()
	c.batches = append(c.batches, len(docs))
	c.mu.Unlock()
	return c.Client.Import(ctx, collection, docs)
}

// brokenClient fails every write and search while collection lookups work.
type brokenClient struct {
	searchindex.Client
	err error
}

func (b brokenClient) Upsert(context.Context, string, searchindex.Document) error { return b.err }

func (b brokenClient) Delete(context.Context, string, string) error { return b.err }

func (b brokenClient) Import(context.Context, string, []searchindex.Document) error { return b.err }

func (b brokenClient) Search(context.Context, string, searchindex.SearchParams) (*searchindex.SearchResult, error) {
	return nil, b.err
}

type staticIgnore struct {
	ids []string
	err error
}

func (s staticIgnore) GetIgnoreList(context.Context, string) ([]string, error) {
	return s.ids, s.err
}

func newMemClient(t *testing.T) *searchindex.BleveClient {
	t.Helper()
	c, err := searchindex.NewBleveClient("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestIndexer(t *testing.T, client searchindex.Client) *Indexer {
	t.Helper()
	ix := NewIndexer(client, "biodata", 0)
	_, err := ix.EnsureCollection(context.Background())
	require.NoError(t, err)
	return ix
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC) }
}

type eventSink struct {
	mu     sync.Mutex
	events []SyncEvent
}

func (s *eventSink) ObserveSync(e SyncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) snapshot() []SyncEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SyncEvent(nil), s.events...)
}
