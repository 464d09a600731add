package services

import (
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/internal/telemetry"
)

type SyncOp string

const (
	SyncUpsert SyncOp = "upsert"
	SyncDelete SyncOp = "delete"
	SyncImport SyncOp = "import"
)

// SyncEvent reports one push from the profile store into the search index.
// It is delivered separately from the result of the store write.
type SyncEvent struct {
	Op        SyncOp
	BiodataID string
	Count     int
	Err       error
	Duration  time.Duration
}

type SyncObserver interface {
	ObserveSync(SyncEvent)
}

type SyncObserverFunc func(SyncEvent)

func (f SyncObserverFunc) ObserveSync(e SyncEvent) { f(e) }

// LogSyncObserver writes every sync outcome to the structured log.
func LogSyncObserver() SyncObserver {
	return SyncObserverFunc(func(e SyncEvent) {
		if e.Err != nil {
			logger.Warn("Search index sync failed; profile store write kept",
				"op", e.Op, "biodata_id", e.BiodataID, "count", e.Count, "error", e.Err, "duration", e.Duration)
			return
		}
		logger.Info("Search index synced", "op", e.Op, "biodata_id", e.BiodataID, "count", e.Count, "duration", e.Duration)
	})
}

func MetricsSyncObserver(m *telemetry.Metrics) SyncObserver {
	return SyncObserverFunc(func(e SyncEvent) {
		m.RecordIndexSync(string(e.Op), e.Err == nil, e.Duration)
	})
}
