package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"agrilift/portal/internal/config"
	"agrilift/portal/internal/events"
)

// TaskType defines the type of a background task.
const (
	TypeExportEvent = "export:event"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// NewExportEventTask wraps an export event into a queueable task.
func NewExportEventTask(ev events.Event) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export event: %w", err)
	}
	return asynq.NewTask(TypeExportEvent, payload, asynq.Queue("default")), nil
}

// AsynqPublisher implements events.Publisher by enqueueing an export:event
// task for the background notification worker.
type AsynqPublisher struct {
	client *asynq.Client
}

func NewAsynqPublisher(client *asynq.Client) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

func (p *AsynqPublisher) Publish(ctx context.Context, ev events.Event) error {
	task, err := NewExportEventTask(ev)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue export event %s for %s: %w", ev.Type, ev.ExportID, err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	cfg *config.Config
}

func NewTaskProcessor(cfg *config.Config) *TaskProcessor {
	return &TaskProcessor{cfg: cfg}
}

// HandleExportEventTask consumes an export event. Actual notification
// delivery (email, push, webhooks) belongs to an external integration; this
// handler is the slot it plugs into, and for now it only records receipt.
func (p *TaskProcessor) HandleExportEventTask(ctx context.Context, t *asynq.Task) error {
	var ev events.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return fmt.Errorf("failed to decode export event payload: %w", err)
	}
	log.Printf("export event received: type=%s export=%s owner=%s", ev.Type, ev.ExportID, ev.OwnerID)
	return nil
}

// SetupServer configures and returns an Asynq server instance.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) *asynq.Server {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task %s failed: %v", task.Type(), err)
			}),
		},
	)
	return srv
}

// NewServeMux registers the task handlers for the background worker.
func NewServeMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExportEvent, processor.HandleExportEventTask)
	return mux
}
