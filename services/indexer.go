package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"biodata-platform/internal/logger"
	"biodata-platform/internal/searchindex"
	"biodata-platform/models"

	"golang.org/x/time/rate"
)

const importBatchSize = 100

// BiodataSchema is the fixed layout of the biodata search collection.
func BiodataSchema(name string) searchindex.Schema {
	return searchindex.Schema{
		Name: name,
		Fields: []searchindex.Field{
			{Name: "fullName", Type: searchindex.FieldString, FullText: true},
			{Name: "biodataType", Type: searchindex.FieldString, Facet: true},
			{Name: "maritalStatus", Type: searchindex.FieldString, Facet: true},
			{Name: "age", Type: searchindex.FieldInt32, Facet: true},
			{Name: "height", Type: searchindex.FieldString, Facet: true},
			{Name: "complexion", Type: searchindex.FieldString, Facet: true},
			{Name: "profession", Type: searchindex.FieldString, Facet: true, FullText: true},
			{Name: "occupation", Type: searchindex.FieldString, Facet: true, FullText: true},
			{Name: "familyStatus", Type: searchindex.FieldString, Facet: true},
			{Name: "presentDivision", Type: searchindex.FieldString, Facet: true, FullText: true},
			{Name: "presentDistrict", Type: searchindex.FieldString, Facet: true, FullText: true},
			{Name: "presentUpazilla", Type: searchindex.FieldString, Facet: true},
			{Name: "address", Type: searchindex.FieldString, Optional: true, FullText: true},
			{Name: "location", Type: searchindex.FieldString, Optional: true, FullText: true},
			{Name: "displayName", Type: searchindex.FieldString, Optional: true, FullText: true},
			{Name: "birthYear", Type: searchindex.FieldString, Optional: true},
			{Name: "createdAt", Type: searchindex.FieldInt64},
			{Name: "updatedAt", Type: searchindex.FieldInt64, Optional: true},
		},
		DefaultSortingField: "createdAt",
	}
}

// Indexer owns the biodata collection inside the search index.
type Indexer struct {
	client     searchindex.Client
	collection string
	limiter    *rate.Limiter
	batchSize  int
}

// NewIndexer throttles bulk imports to batchesPerSecond; zero or less means
// unthrottled.
func NewIndexer(client searchindex.Client, collection string, batchesPerSecond float64) *Indexer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if batchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(batchesPerSecond), 1)
	}
	return &Indexer{
		client:     client,
		collection: collection,
		limiter:    limiter,
		batchSize:  importBatchSize,
	}
}

func (ix *Indexer) Collection() string {
	return ix.collection
}

// EnsureCollection creates the collection when the index reports it missing.
// Any other retrieval failure is returned untouched.
func (ix *Indexer) EnsureCollection(ctx context.Context) (bool, error) {
	_, err := ix.client.RetrieveCollection(ctx, ix.collection)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, searchindex.ErrCollectionNotFound) {
		return false, err
	}

	logger.Info("Creating search collection", "collection", ix.collection)
	if _, err := ix.client.CreateCollection(ctx, BiodataSchema(ix.collection)); err != nil {
		if errors.Is(err, searchindex.ErrCollectionExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateCollection ensures the collection and reads it back.
func (ix *Indexer) CreateCollection(ctx context.Context) (*searchindex.CollectionInfo, bool, error) {
	created, err := ix.EnsureCollection(ctx)
	if err != nil {
		return nil, false, err
	}
	info, err := ix.client.RetrieveCollection(ctx, ix.collection)
	if err != nil {
		return nil, created, fmt.Errorf("collection not readable after create: %w", err)
	}
	return info, created, nil
}

func (ix *Indexer) ListCollections(ctx context.Context) ([]searchindex.CollectionInfo, error) {
	return ix.client.ListCollections(ctx)
}

func (ix *Indexer) Upsert(ctx context.Context, doc models.IndexDocument) error {
	return ix.client.Upsert(ctx, ix.collection, doc)
}

// BulkImport imports docs in batches of 100. A batch is applied whole or not
// at all; the first failing batch stops the import and the count of documents
// already imported is returned with the error.
func (ix *Indexer) BulkImport(ctx context.Context, docs []models.IndexDocument) (int, error) {
	imported := 0
	for start := 0; start < len(docs); start += ix.batchSize {
		end := min(start+ix.batchSize, len(docs))

		if err := ix.limiter.Wait(ctx); err != nil {
			return imported, err
		}

		batch := make([]searchindex.Document, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, d)
		}
		if err := ix.client.Import(ctx, ix.collection, batch); err != nil {
			return imported, fmt.Errorf("import batch %d-%d: %w", start, end, err)
		}
		imported += len(batch)
		logger.Debug("Indexed batch", "collection", ix.collection, "size", len(batch))
	}
	return imported, nil
}

// Delete removes a document. A missing document or collection is success.
func (ix *Indexer) Delete(ctx context.Context, id string) error {
	err := ix.client.Delete(ctx, ix.collection, id)
	if errors.Is(err, searchindex.ErrDocumentNotFound) || errors.Is(err, searchindex.ErrCollectionNotFound) {
		return nil
	}
	return err
}

func (ix *Indexer) Search(ctx context.Context, params searchindex.SearchParams) (*searchindex.SearchResult, error) {
	return ix.client.Search(ctx, ix.collection, params)
}

// ClassifyIndexError turns a collection bootstrap failure into an operator
// facing message.
func ClassifyIndexError(err error) string {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrPermission):
		return "Search index credentials lack the required permissions"
	case errors.Is(err, searchindex.ErrUnavailable):
		return "Search index is unavailable (circuit open), try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "Connection to the search index timed out"
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return "Invalid search index host or connection failed"
	default:
		return "Failed to connect to the search index"
	}
}
