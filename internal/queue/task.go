package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type TaskType string

const (
	TaskVerifyEmail TaskType = "verify_email"
	TaskSnapshot    TaskType = "snapshot"
	TaskCleanup     TaskType = "cleanup"
)

// Task is the flat payload carried by one stream entry.
type Task struct {
	Type TaskType
	Data map[string]string
}

func (t Task) values() map[string]any {
	values := make(map[string]any, len(t.Data)+1)
	for k, v := range t.Data {
		values[k] = v
	}
	values["type"] = string(t.Type)
	return values
}

// TaskFromMessage rebuilds a Task from a stream entry.
func TaskFromMessage(msg redis.XMessage) Task {
	task := Task{Data: make(map[string]string, len(msg.Values))}
	for k, v := range msg.Values {
		s := fmt.Sprint(v)
		if k == "type" {
			task.Type = TaskType(s)
			continue
		}
		task.Data[k] = s
	}
	return task
}

// Enqueuer is what producers depend on.
type Enqueuer interface {
	Enqueue(ctx context.Context, task Task) error
}

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, task Task) error {
	if p == nil || p.client == nil {
		return nil
	}
	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: task.values(),
	}).Result(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type, err)
	}
	return nil
}
