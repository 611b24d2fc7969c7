package worker

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"screen-ocr-translate/src/llm"
)

// Task is one unit of capture work, usually the pipeline steps after a
// committed selection.
type Task func(ctx context.Context) (llm.Result, error)

// ResultCallback is invoked on completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(res llm.Result, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: starting task")
				res, err := runWithContext(j.ctx, j.task)
				log.Printf("Worker: task completed, empty=%v, err=%v", res.Empty(), err)
				j.cb(res, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext runs task and returns early with ctx.Err() when the deadline
// passes first. The task keeps running in the background in that case.
func runWithContext(ctx context.Context, task Task) (llm.Result, error) {
	type outcome struct {
		res llm.Result
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in worker task: %v", r)
				resCh <- outcome{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		res, err := task(ctx)
		resCh <- outcome{res, err}
	}()
	select {
	case r := <-resCh:
		return r.res, r.err
	case <-ctx.Done():
		return llm.Result{}, ctx.Err()
	}
}
