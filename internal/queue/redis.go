package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/EEWBot/webhook-benchmark/internal/utils"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "webhook-benchmark:jobs"
	DefaultGroup  = "webhook-benchmark:workers"

	readBlock = 5 * time.Second
)

// envelope is the stream representation of a job.
type envelope struct {
	ID         string `json:"id"`
	Target     string `json:"target"`
	Identity   string `json:"identity"`
	RetryCount int    `json:"retry_count"`
	RetryLimit int    `json:"retry_limit"`
	Body       []byte `json:"body"`
	CreatedAt  int64  `json:"created_at"`
}

// RedisOptions configures a RedisQueue.
type RedisOptions struct {
	Addr     string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

// RedisQueue carries jobs over a Redis stream read through a consumer group,
// so several benchmark processes can share one producer.
type RedisQueue struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string

	ctxMu   sync.Mutex
	lastCtx *model.Context
}

// NewRedisQueue connects, and creates the stream and consumer group if needed.
func NewRedisQueue(ctx context.Context, opts RedisOptions) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	return newRedisQueue(ctx, rdb, opts)
}

func newRedisQueue(ctx context.Context, rdb *redis.Client, opts RedisOptions) (*RedisQueue, error) {
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	if opts.Group == "" {
		opts.Group = DefaultGroup
	}
	if opts.Consumer == "" {
		opts.Consumer = "consumer-" + uuid.NewString()
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	err := rdb.XGroupCreateMkStream(ctx, opts.Stream, opts.Group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		_ = rdb.Close()
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &RedisQueue{
		client:   rdb,
		stream:   opts.Stream,
		group:    opts.Group,
		consumer: opts.Consumer,
	}, nil
}

// Enqueue appends the job to the stream. Transient failures are retried.
func (q *RedisQueue) Enqueue(ctx context.Context, job model.Job) error {
	raw, err := encodeJob(job)
	if err != nil {
		return err
	}

	err = utils.WithRetry(ctx, func() error {
		return q.client.XAdd(ctx, &redis.XAddArgs{
			Stream: q.stream,
			Values: map[string]any{"job": string(raw)},
		}).Err()
	})
	return mapRedisErr(err)
}

// Dequeue blocks until a job is available, then acknowledges it.
func (q *RedisQueue) Dequeue(ctx context.Context) (model.Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.Job{}, err
		}

		entries, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Block:    readBlock,
			Count:    1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return model.Job{}, ctx.Err()
			}
			return model.Job{}, mapRedisErr(err)
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				if err := q.client.XAck(ctx, q.stream, q.group, msg.ID).Err(); err != nil {
					return model.Job{}, mapRedisErr(err)
				}

				raw, ok := msg.Values["job"].(string)
				if !ok {
					return model.Job{}, fmt.Errorf("message %s: missing job field", msg.ID)
				}
				return q.decodeJob([]byte(raw))
			}
		}
	}
}

// Close releases the Redis connection pool.
func (q *RedisQueue) Close() error {
	err := q.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func encodeJob(job model.Job) ([]byte, error) {
	if job.Target == nil {
		return nil, errors.New("job has no target")
	}
	env := envelope{
		ID:         uuid.NewString(),
		Target:     job.Target.String(),
		Identity:   job.Identity,
		RetryCount: job.RetryCount,
		CreatedAt:  time.Now().Unix(),
	}
	if job.Context != nil {
		env.Body = job.Context.Body
		env.RetryLimit = job.Context.RetryLimit
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return raw, nil
}

// decodeJob rebuilds a job. Consecutive jobs with the same payload share one Context.
func (q *RedisQueue) decodeJob(raw []byte) (model.Job, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	target, err := url.Parse(env.Target)
	if err != nil {
		return model.Job{}, fmt.Errorf("job %s target: %w", env.ID, err)
	}

	q.ctxMu.Lock()
	jc := q.lastCtx
	if jc == nil || jc.RetryLimit != env.RetryLimit || string(jc.Body) != string(env.Body) {
		jc = model.NewContext(env.Body, env.RetryLimit)
		q.lastCtx = jc
	}
	q.ctxMu.Unlock()

	job := model.NewJob(jc, target, env.Identity)
	job.RetryCount = env.RetryCount
	return job, nil
}

func mapRedisErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
