package fetchworker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Result carries the outcome of an offloaded blocking call.
type Result struct {
	Value any
	Err   error
}

type task struct {
	key string
	fn  func(ctx context.Context) (any, error)
	out chan Result
}

// PoolStats contains live metrics for the pool.
type PoolStats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	ActiveWorkers   int   `json:"active_workers"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalOverflow   int64 `json:"total_overflow"`
	TotalErrors     int64 `json:"total_errors"`
}

// Pool runs blocking extraction calls on dedicated workers so request
// handlers keep making progress while a download or search is in flight.
// Tasks with the same key land on the same worker queue; when a queue is
// full the task runs on its own goroutine instead, because request paths
// must never observe admission errors.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalOverflow   int64
	totalErrors     int64
}

type worker struct {
	id           int
	queue        chan task
	ctx          context.Context
	cancel       context.CancelFunc
	isProcessing int32
	pool         *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	if queueSize <= 0 {
		queueSize = 32
	}

	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
	}
}

// Start launches all workers. The given context cancels them cooperatively.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:     i,
			queue:  make(chan task, p.queueSize),
			ctx:    workerCtx,
			cancel: cancel,
			pool:   p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// Submit offloads fn and returns a channel that delivers exactly one Result.
// Submit itself never blocks on the blocking work.
func (p *Pool) Submit(key string, fn func(ctx context.Context) (any, error)) <-chan Result {
	out := make(chan Result, 1)
	t := task{key: key, fn: fn, out: out}
	atomic.AddInt64(&p.totalDispatched, 1)

	if atomic.LoadInt32(&p.stopped) == 1 {
		p.runDetached(t)
		return out
	}

	shard := p.shardForKey(key)
	select {
	case p.workers[shard].queue <- t:
	default:
		// Queue full; spill over instead of rejecting or blocking the caller.
		atomic.AddInt64(&p.totalOverflow, 1)
		logrus.Warnf("[POOL] Worker %d queue full, running task %q detached", shard, key)
		p.runDetached(t)
	}

	return out
}

func (p *Pool) runDetached(t task) {
	go func() {
		t.out <- p.execute(context.Background(), t)
	}()
}

func (p *Pool) execute(ctx context.Context, t task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			logrus.Errorf("[POOL] Panic while running task %q: %v", t.key, r)
			res = Result{Err: errPanic(r)}
		}
		atomic.AddInt64(&p.totalProcessed, 1)
	}()

	value, err := t.fn(ctx)
	if err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
	}
	return Result{Value: value, Err: err}
}

// Stop drains queued tasks and waits for workers to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[POOL] Stopping workers...")

		for _, w := range p.workers {
			w.cancel()
			close(w.queue)
		}

		p.wg.Wait()
		logrus.Info("[POOL] All workers stopped")
	})
}

func (p *Pool) Stats() PoolStats {
	active := 0
	for _, w := range p.workers {
		if atomic.LoadInt32(&w.isProcessing) == 1 {
			active++
		}
	}

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   active,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalOverflow:   atomic.LoadInt64(&p.totalOverflow),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (p *Pool) shardForKey(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[POOL] Worker %d started", w.id)

	for {
		select {
		case t, ok := <-w.queue:
			if !ok {
				logrus.Debugf("[POOL] Worker %d shutting down", w.id)
				return
			}
			atomic.StoreInt32(&w.isProcessing, 1)
			t.out <- w.pool.execute(w.ctx, t)
			atomic.StoreInt32(&w.isProcessing, 0)

		case <-w.ctx.Done():
			logrus.Debugf("[POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drainQueue()
			return
		}
	}
}

// drainQueue finishes pending tasks before shutdown so no submitted task
// leaves its caller waiting forever.
func (w *worker) drainQueue() {
	for {
		select {
		case t, ok := <-w.queue:
			if !ok {
				return
			}
			t.out <- w.pool.execute(context.Background(), t)
		default:
			return
		}
	}
}

type panicError struct{ value any }

func errPanic(v any) error { return panicError{value: v} }

func (e panicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.value)
}
