package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/services"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskResyncIndex = "search:resync"

	queueCritical = "critical"
	queueDefault  = "default"
)

// ErrResyncPending is returned when a resync is already queued.
var ErrResyncPending = errors.New("a resync is already queued")

type ResyncPayload struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewResyncTask builds a full index rebuild. Only one can be queued at a time.
func NewResyncTask(requestedBy string, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(ResyncPayload{RequestedBy: requestedBy, RequestedAt: at})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskResyncIndex,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(queueCritical),
		asynq.Unique(10*time.Minute),
	), nil
}

// RedisOpt converts go-redis options into asynq's connection options.
func RedisOpt(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

// Client enqueues background index work.
type Client struct {
	client *asynq.Client
	now    func() time.Time
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt), now: time.Now}
}

// EnqueueResync queues a rebuild and returns the task id.
func (c *Client) EnqueueResync(ctx context.Context, requestedBy string) (string, error) {
	task, err := NewResyncTask(requestedBy, c.now().UTC())
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", ErrResyncPending
	}
	if err != nil {
		return "", fmt.Errorf("enqueue resync: %w", err)
	}
	logger.Info("Resync queued", "task_id", info.ID, "queue", info.Queue, "requested_by", requestedBy)
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Resyncer rebuilds the search index from the profile store.
type Resyncer interface {
	Resync(ctx context.Context) (*services.ResyncResult, error)
}

// TaskProcessor handles queued index work.
type TaskProcessor struct {
	resyncer Resyncer
}

func NewTaskProcessor(resyncer Resyncer) *TaskProcessor {
	return &TaskProcessor{resyncer: resyncer}
}

func (p *TaskProcessor) HandleResync(ctx context.Context, t *asynq.Task) error {
	var payload ResyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Processing resync", "requested_by", payload.RequestedBy, "requested_at", payload.RequestedAt)

	res, err := p.resyncer.Resync(ctx)
	if err != nil {
		return err
	}

	logger.Info("Resync completed", "total", res.Total, "indexed", res.Indexed, "collection_created", res.CollectionCreated)
	return nil
}

// Mux registers every task handler.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskResyncIndex, p.HandleResync)
	return mux
}

// Server runs queued tasks inside the API process, which owns the search
// index files.
type Server struct {
	server    *asynq.Server
	processor *TaskProcessor
}

func NewServer(opt asynq.RedisConnOpt, processor *TaskProcessor, concurrency int) *Server {
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueCritical: 6,
			queueDefault:  3,
		},
		StrictPriority: true,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Task failed", "type", task.Type(), "error", err)
		}),
		Logger: asynqLogger{},
	})
	return &Server{server: srv, processor: processor}
}

func (s *Server) Start() error {
	logger.Info("Starting task server", "queues", []string{queueCritical, queueDefault})
	return s.server.Start(s.processor.Mux())
}

func (s *Server) Shutdown() {
	s.server.Shutdown()
}

// asynqLogger routes asynq's own messages into the structured log.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debug(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Info(args ...interface{})  { logger.Info(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Warn(args ...interface{})  { logger.Warn(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Error(args ...interface{}) { logger.Error(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Fatal(args ...interface{}) {
	logger.Error(fmt.Sprint(args...), "component", "asynq")
	panic(fmt.Sprint(args...))
}
