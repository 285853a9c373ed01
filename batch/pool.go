package batch

import (
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/logging"
)

// Pool bounds the number of goroutines rendering images at once.
type Pool struct {
	antsPool *ants.Pool
}

// IPool - pooling interface
type IPool interface {
	Submit(task func()) error
	Release()
}

// NewPool creates a blocking pool of size workers.
func NewPool(size int) (*Pool, error) {
	pool, err := ants.NewPool(size, ants.WithNonblocking(false), ants.WithPanicHandler(func(data interface{}) {
		logging.Error("Render worker panicked", zap.Any("panic", data))
	}))
	if err != nil {
		return nil, err
	}
	return &Pool{antsPool: pool}, nil
}

// Release - release all goroutines
func (p *Pool) Release() {
	p.antsPool.Release()
}

// Running - returns the number of the currently running goroutines.
func (p *Pool) Running() int {
	return p.antsPool.Running()
}

// Submit - submit a task to this pool
func (p *Pool) Submit(task func()) error {
	return p.antsPool.Submit(task)
}
