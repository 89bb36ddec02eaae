package meshing

import (
	"context"
	"sync"

	"voxelworld/internal/world"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	Chunk *world.Chunk
	// Result channel - will be sent the result when done
	ResultChan chan MeshResult
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Key   world.ChunkKey
	Mesh  *Mesh // nil when the chunk has no visible faces
	Empty bool
	Error error
}

// WorkerPool manages goroutines for mesh generation
type WorkerPool struct {
	mesher   *Mesher
	world    *world.World
	jobQueue chan MeshJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool creates a new mesh worker pool
func NewWorkerPool(m *Mesher, w *world.World, workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	workers = max(workers, 1)

	pool := &WorkerPool{
		mesher:   m,
		world:    w,
		jobQueue: make(chan MeshJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Start worker goroutines
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJob submits a mesh generation job to the pool
// Returns true if job was submitted successfully, false if queue is full or the pool is shut down
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false // Queue is full
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued, ctx is done or the pool shuts down
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return context.Canceled
	}
}

// worker is the worker goroutine that processes mesh jobs
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			result := p.build(job.Chunk)
			if job.ResultChan == nil {
				continue
			}

			// Send result back
			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			p.mesher.log.Debug("mesh worker stopped", "worker", id)
			return
		}
	}
}

func (p *WorkerPool) build(c *world.Chunk) MeshResult {
	if c == nil {
		return MeshResult{Error: errNilChunk}
	}
	mesh, ok := p.mesher.CreateChunkMesh(c, p.world)
	return MeshResult{Key: c.Key(), Mesh: mesh, Empty: !ok}
}

// Shutdown stops the workers and waits for them. Queued jobs are dropped.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// QueueLength returns the current number of jobs in the queue
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
