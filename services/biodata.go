package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/models"
	"biodata-platform/utils"

	"github.com/google/uuid"
)

// BiodataService writes profiles to the store and mirrors them into the
// search index. Store results are what callers see; index outcomes go to the
// registered SyncObservers only.
type BiodataService struct {
	store       BiodataStore
	indexer     *Indexer
	observers   []SyncObserver
	syncTimeout time.Duration
	now         func() time.Time
}

func NewBiodataService(store BiodataStore, indexer *Indexer, syncTimeout time.Duration, observers ...SyncObserver) *BiodataService {
	return &BiodataService{
		store:       store,
		indexer:     indexer,
		observers:   observers,
		syncTimeout: syncTimeout,
		now:         time.Now,
	}
}

type ResyncResult struct {
	CollectionCreated bool `json:"collectionCreated"`
	Total             int  `json:"total"`
	Indexed           int  `json:"indexed"`
}

func (s *BiodataService) Create(ctx context.Context, userID string, b models.Biodata) (*models.Biodata, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	existing, err := s.store.GetByUserID(ctx, userID)
	switch {
	case err == nil && existing != nil:
		return nil, ErrBiodataExists
	case err != nil && !errors.Is(err, ErrBiodataNotFound):
		return nil, err
	}

	now := s.now().UTC()
	b.ID = uuid.NewString()
	b.UserID = userID
	b.CreatedAt = now
	b.UpdatedAt = now
	b.CleanForSave()

	if err := s.store.Insert(ctx, &b); err != nil {
		return nil, err
	}
	logger.Info("Biodata created", "biodata_id", b.ID, "user_id", userID)

	s.pushUpsert(ctx, b)
	return &b, nil
}

// Update merges patch into the caller's own profile, then re-indexes the
// merged document.
func (s *BiodataService) Update(ctx context.Context, userID, id string, patch models.Biodata) (*models.Biodata, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, ErrNotBiodataOwner
	}

	if patch.BiodataType == "" {
		patch.BiodataType = current.BiodataType
	}
	patch.CleanForSave()
	unset := patch.IrrelevantFields()

	patch.ID = ""
	patch.UserID = ""
	patch.IsTestData = false
	patch.CreatedAt = time.Time{}
	patch.UpdatedAt = s.now().UTC()

	updated, err := s.store.Update(ctx, id, patch, unset)
	if err != nil {
		return nil, err
	}
	logger.Info("Biodata updated", "biodata_id", id, "user_id", userID)

	s.pushUpsert(ctx, *updated)
	return updated, nil
}

// DeleteByUser removes the user's profile and returns its id.
func (s *BiodataService) DeleteByUser(ctx context.Context, userID string) (string, error) {
	b, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := s.store.Delete(ctx, b.ID); err != nil {
		return "", err
	}
	logger.Info("Biodata deleted", "biodata_id", b.ID, "user_id", userID)

	s.pushDelete(ctx, b.ID)
	return b.ID, nil
}

func (s *BiodataService) GetByID(ctx context.Context, id string) (*models.Biodata, error) {
	return s.store.GetByID(ctx, id)
}

func (s *BiodataService) GetByUserID(ctx context.Context, userID string) (*models.Biodata, error) {
	return s.store.GetByUserID(ctx, userID)
}

// Resync rebuilds the search index from the profile store.
func (s *BiodataService) Resync(ctx context.Context) (*ResyncResult, error) {
	created, err := s.indexer.EnsureCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResyncLoad, err)
	}

	indexed, err := s.importAll(ctx, all)
	result := &ResyncResult{CollectionCreated: created, Total: len(all), Indexed: indexed}
	if err != nil {
		return result, fmt.Errorf("bulk import: %w", err)
	}
	return result, nil
}

func (s *BiodataService) importAll(ctx context.Context, bs []models.Biodata) (int, error) {
	now := s.now()
	docs := make([]models.IndexDocument, 0, len(bs))
	for _, b := range bs {
		docs = append(docs, TransformBiodata(b, now))
	}

	start := time.Now()
	n, err := s.indexer.BulkImport(ctx, docs)
	s.emit(SyncEvent{Op: SyncImport, Count: n, Err: err, Duration: time.Since(start)})
	return n, err
}

func (s *BiodataService) pushUpsert(ctx context.Context, b models.Biodata) {
	ctx, cancel := utils.WithDetachedTimeout(ctx, s.syncTimeout)
	defer cancel()

	start := time.Now()
	err := s.indexer.Upsert(ctx, TransformBiodata(b, s.now()))
	s.emit(SyncEvent{Op: SyncUpsert, BiodataID: b.ID, Count: 1, Err: err, Duration: time.Since(start)})
}

func (s *BiodataService) pushDelete(ctx context.Context, id string) {
	ctx, cancel := utils.WithDetachedTimeout(ctx, s.syncTimeout)
	defer cancel()

	start := time.Now()
	err := s.indexer.Delete(ctx, id)
	s.emit(SyncEvent{Op: SyncDelete, BiodataID: id, Count: 1, Err: err, Duration: time.Since(start)})
}

func (s *BiodataService) emit(e SyncEvent) {
	for _, o := range s.observers {
		o.ObserveSync(e)
	}
}

// IndexMany pushes profiles that are already stored into the index.
func (s *BiodataService) IndexMany(ctx context.Context, bs []models.Biodata) (int, error) {
	ctx, cancel := utils.WithDetachedTimeout(ctx, utils.LongTimeout)
	defer cancel()
	return s.importAll(ctx, bs)
}

// RemoveMany drops ids from the index one by one, reporting each outcome.
func (s *BiodataService) RemoveMany(ctx context.Context, ids []string) {
	for _, id := range ids {
		s.pushDelete(ctx, id)
	}
}
