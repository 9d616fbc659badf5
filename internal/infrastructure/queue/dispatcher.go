package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/reserved-realm/internal/pkg/async"
	"github.com/99minutos/reserved-realm/pkg/logger"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned for work submitted to, or still queued on, a
// dispatcher whose workers have exited.
var ErrStopped = errors.New("dispatcher stopped")

type job struct {
	key  string
	run  func()
	fail func(error)
}

// Dispatcher routes store operations to a fixed set of workers using
// consistent hashing on a key, so operations on the same key run one at a
// time and in submission order.
type Dispatcher struct {
	workers []chan job
	stopped chan struct{} // closed once no new work is admitted
	quit    chan struct{} // closed once no enqueue is in flight
	mu      sync.RWMutex  // held shared by Run while enqueueing
	once    sync.Once
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		stopped: make(chan struct{}),
		quit:    make(chan struct{}),
		log:     logger.Component(log, "store_dispatcher"),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled the
// dispatcher stops admitting work, waits for in-flight enqueues, and then
// the workers fail whatever is still queued with ErrStopped.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		d.once.Do(func() { close(d.stopped) })
		d.mu.Lock()
		close(d.quit)
		d.mu.Unlock()
	}()
}

// Workers returns the number of shards.
func (d *Dispatcher) Workers() int {
	return len(d.workers)
}

// Run schedules fn on the worker owning key and returns a future for its
// result. Enqueueing blocks only while the shard buffer is full.
func Run[T any](d *Dispatcher, ctx context.Context, key string, fn func(ctx context.Context) (T, error)) *async.Future[T] {
	p := async.NewPromise[T]()
	j := job{
		key: key,
		run: func() {
			if err := ctx.Err(); err != nil {
				p.Reject(err)
				return
			}
			v, err := fn(ctx)
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(v)
		},
		fail: func(err error) { p.Reject(err) },
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	select {
	case <-d.stopped:
		return async.Failed[T](ErrStopped)
	default:
	}

	select {
	case d.workers[d.shardIndex(key)] <- j:
	case <-ctx.Done():
		return async.Failed[T](ctx.Err())
	case <-d.stopped:
		return async.Failed[T](ErrStopped)
	}
	return p.Future()
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch chan job) {
	for {
		select {
		case <-d.quit:
			d.drain(ch)
			return
		case j := <-ch:
			d.execute(id, j)
		}
	}
}

func (d *Dispatcher) execute(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("key", j.key).
				Int("worker_id", id).
				Interface("panic", r).
				Msg("store operation panicked")
			j.fail(fmt.Errorf("store operation panicked: %v", r))
		}
	}()
	j.run()
}

func (d *Dispatcher) drain(ch chan job) {
	for {
		select {
		case j := <-ch:
			j.fail(ErrStopped)
		default:
			return
		}
	}
}
