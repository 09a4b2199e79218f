package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrStopped worker 池已关闭
	ErrStopped = errors.New("worker 池已关闭")
	// ErrQueueFull 单个 key 的待处理任务已满
	ErrQueueFull = errors.New("任务队列已满")
)

const (
	taskPending int32 = iota
	taskRunning
	taskCanceled
)

type task struct {
	fn    func()
	err   error
	state atomic.Int32
	done  chan struct{}
}

// keyQueue 同一 key 的待处理任务，先进先出
type keyQueue struct {
	tasks []*task
}

// Pool 同一 key 的任务按提交顺序串行执行，不同 key 之间并发执行
// 并发执行的任务总数不超过 limit
type Pool struct {
	mu        sync.Mutex
	queues    map[string]*keyQueue
	sem       chan struct{}
	queueSize int
	wg        sync.WaitGroup
	stopped   bool
	logger    *zap.Logger
}

// NewPool 创建 worker 池，queueSize <= 0 时不限制单个 key 的排队数
func NewPool(limit, queueSize int, logger *zap.Logger) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{
		queues:    make(map[string]*keyQueue),
		sem:       make(chan struct{}, limit),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Do 把 fn 排到 key 的队尾并等待执行完成
// fn 开始执行前 ctx 取消则放弃该任务并返回 ctx.Err()，已开始的任务会等待其完成
func (p *Pool) Do(ctx context.Context, key string, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &task{fn: fn, done: make(chan struct{})}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	q, draining := p.queues[key]
	if !draining {
		q = &keyQueue{}
		p.queues[key] = q
	}
	if p.queueSize > 0 && len(q.tasks) >= p.queueSize {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrQueueFull, key)
	}
	q.tasks = append(q.tasks, t)
	if !draining {
		p.wg.Add(1)
		go p.drain(key, q)
	}
	p.mu.Unlock()

	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		if t.state.CompareAndSwap(taskPending, taskCanceled) {
			return ctx.Err()
		}
		<-t.done
		return t.err
	}
}

// drain 依次执行 key 的任务，队列为空时退出
func (p *Pool) drain(key string, q *keyQueue) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(q.tasks) == 0 {
			delete(p.queues, key)
			p.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		p.mu.Unlock()

		p.sem <- struct{}{}
		if t.state.CompareAndSwap(taskPending, taskRunning) {
			p.exec(key, t)
		} else {
			p.logger.Debug("任务已取消，跳过", zap.String("key", key))
		}
		<-p.sem
	}
}

func (p *Pool) exec(key string, t *task) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.err = fmt.Errorf("任务执行 panic: %v", r)
			p.logger.Error("worker 任务 panic",
				zap.String("key", key),
				zap.Any("panic", r))
		}
	}()
	t.fn()
}

// pending 返回 key 排队中的任务数
func (p *Pool) pending(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q, ok := p.queues[key]; ok {
		return len(q.tasks)
	}
	return 0
}

// Stop 拒绝新任务并等待已排队的任务完成，可重复调用
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}
