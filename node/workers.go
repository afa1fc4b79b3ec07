package node

import (
	"errors"
	"sync"
	"sync/atomic"
)

// validationTask is one unit of work for the validation pool.
type validationTask struct {
	tx     *Transaction
	report func(tx *Transaction, err error)
}

// ValidatorPool runs transaction validation on a fixed set of workers.
// A panicking validator fails its own task without taking down the pool.
type ValidatorPool struct {
	tasks chan validationTask
	wg    sync.WaitGroup

	completed int64
	failed    int64

	closeOnce sync.Once
}

// NewValidatorPool starts a pool with the given number of workers.
func NewValidatorPool(workers int) *ValidatorPool {
	if workers <= 0 {
		workers = 1
	}

	p := &ValidatorPool{
		tasks: make(chan validationTask, workers*64),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *ValidatorPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *ValidatorPool) run(task validationTask) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.failed, 1)
			task.report(task.tx, errors.New("panic during validation"))
		}
	}()

	err := task.tx.Validate()
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
	} else {
		atomic.AddInt64(&p.completed, 1)
	}
	task.report(task.tx, err)
}

// ValidateBatch validates all transactions in parallel and returns the ones
// that passed, preserving submission order.
func (p *ValidatorPool) ValidateBatch(txs []*Transaction) []*Transaction {
	if len(txs) == 0 {
		return nil
	}

	var mu sync.Mutex
	verdicts := make(map[string]error, len(txs))

	var pending sync.WaitGroup
	pending.Add(len(txs))

	for _, tx := range txs {
		p.tasks <- validationTask{
			tx: tx,
			report: func(tx *Transaction, err error) {
				mu.Lock()
				verdicts[tx.ID] = err
				mu.Unlock()
				pending.Done()
			},
		}
	}
	pending.Wait()

	valid := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if verdicts[tx.ID] == nil {
			valid = append(valid, tx)
		}
	}
	return valid
}

// Stats reports completed and failed validation counts.
func (p *ValidatorPool) Stats() (completed, failed int64) {
	return atomic.LoadInt64(&p.completed), atomic.LoadInt64(&p.failed)
}

// Close stops the workers after draining queued tasks.
func (p *ValidatorPool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
