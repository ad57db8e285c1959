// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source yields raw action records. Pop waits up to timeout and reports ok=false when
// nothing arrived.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (payload []byte, ok bool, err error)
}

// Requeuer is implemented by sources that can take back records the service could not
// store before it stopped. Payloads are in the order they were popped.
type Requeuer interface {
	Requeue(ctx context.Context, payloads [][]byte) error
}

// Sink persists a batch of records. It must tolerate records it has already stored.
type Sink interface {
	WriteActions(ctx context.Context, records []models.GameActionRecord) error
}

// RedisSource pops records from a Redis list with BLPop.
type RedisSource struct {
	rdb   *redis.Client
	queue string
}

func NewRedisSource(rdb *redis.Client, queue string) *RedisSource {
	return &RedisSource{rdb: rdb, queue: queue}
}

func (r *RedisSource) Pop(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	res, err := r.rdb.BLPop(ctx, timeout, r.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, false, nil
	}
	return []byte(res[1]), true, nil
}

// Requeue pushes payloads back onto the head of the queue in their original order.
func (r *RedisSource) Requeue(ctx context.Context, payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(payloads))
	for i := len(payloads) - 1; i >= 0; i-- {
		values = append(values, payloads[i])
	}
	return r.rdb.LPush(ctx, r.queue, values...).Err()
}

type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	// PopTimeout bounds each wait on the source. Redis rounds it up to one second.
	PopTimeout time.Duration
	// MaxPending caps the records held while the sink is failing. At the cap the
	// service stops popping until a write succeeds, leaving the rest in the queue.
	MaxPending int
}

// Service drains the action queue into the sink in batches. A batch is written when it
// reaches BatchSize, when FlushInterval has passed since the last write, and on shutdown.
// A failed write keeps the batch for the next attempt. Records still unwritten at shutdown
// are handed back to the source when it is a Requeuer.
type Service struct {
	src  Source
	sink Sink
	cfg  Config
	log  logrus.FieldLogger

	batch     []models.GameActionRecord
	lastFlush time.Time
}

func New(src Source, sink Sink, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	if cfg.MaxPending < cfg.BatchSize {
		cfg.MaxPending = cfg.BatchSize * 50
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{src: src, sink: sink, cfg: cfg, log: log}
}

// Run blocks until ctx is done, then writes whatever is still buffered.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("historian started")
	s.lastFlush = time.Now()

	for {
		if ctx.Err() != nil {
			s.shutdown(context.WithoutCancel(ctx))
			s.log.Info("historian stopped")
			return nil
		}

		if len(s.batch) >= s.cfg.MaxPending {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.FlushInterval):
				_ = s.flush(ctx)
			}
			continue
		}

		payload, ok, err := s.src.Pop(ctx, s.cfg.PopTimeout)
		switch {
		case err != nil && ctx.Err() == nil:
			s.log.WithError(err).Error("pop action")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		case ok:
			s.accept(payload)
		}

		if len(s.batch) >= s.cfg.BatchSize || time.Since(s.lastFlush) >= s.cfg.FlushInterval {
			_ = s.flush(ctx)
		}
	}
}

// shutdown makes a last write attempt and requeues whatever it could not store.
func (s *Service) shutdown(ctx context.Context) {
	if s.flush(ctx) == nil {
		return
	}
	n := len(s.batch)
	if rq, ok := s.src.(Requeuer); ok {
		payloads := make([][]byte, 0, n)
		for _, rec := range s.batch {
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			payloads = append(payloads, data)
		}
		err := rq.Requeue(ctx, payloads)
		if err == nil {
			s.log.Warnf("requeued %d unflushed actions", len(payloads))
			s.batch = s.batch[:0]
			return
		}
		s.log.WithError(err).Error("requeue unflushed actions")
	}
	s.log.Errorf("lost %d unflushed actions at shutdown", n)
	s.batch = s.batch[:0]
}

func (s *Service) accept(payload []byte) {
	var rec models.GameActionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.log.WithError(err).Warn("invalid action record")
		return
	}
	s.batch = append(s.batch, rec)
}

func (s *Service) flush(ctx context.Context) error {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return nil
	}
	if err := s.sink.WriteActions(ctx, s.batch); err != nil {
		s.log.WithError(err).Errorf("failed to flush %d actions", len(s.batch))
		return err
	}
	s.log.Debugf("flushed %d actions", len(s.batch))
	s.batch = s.batch[:0]
	return nil
}
