package reverb

import "sync"

type stageJob struct {
	stage  *Stage
	source []float64
	frames int
}

// workerPool runs Stage.convolve for background stages. The pool is fixed
// at construction; per quantum the render goroutine only sends job values
// on a buffered channel and waits on the barrier.
type workerPool struct {
	jobs      chan stageJob
	pending   sync.WaitGroup
	exited    sync.WaitGroup
	closeOnce sync.Once
}

func newWorkerPool(workers, queue int) *workerPool {
	p := &workerPool{jobs: make(chan stageJob, queue)}

	p.exited.Add(workers)
	for range workers {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	defer p.exited.Done()

	for job := range p.jobs {
		job.stage.convolve(job.source, job.frames)
		p.pending.Done()
	}
}

// dispatch queues one convolve per stage. len(stages) must not exceed the
// queue capacity.
func (p *workerPool) dispatch(stages []*Stage, source []float64, frames int) {
	p.pending.Add(len(stages))
	for _, s := range stages {
		p.jobs <- stageJob{stage: s, source: source, frames: frames}
	}
}

// wait blocks until every dispatched job has finished.
func (p *workerPool) wait() {
	p.pending.Wait()
}

func (p *workerPool) close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.exited.Wait()
	})
}
