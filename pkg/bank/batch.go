package bank

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const DefaultBatchWorkers = 8

type BatchResult struct {
	Receipt *Receipt
	Err     error
}

type batchTask struct {
	idx int
	tx  *Transaction
}

// ProcessBatch runs txs on a worker pool. Requests touching the same accounts
// are still applied one at a time; results are returned in input order. A
// cancelled ctx fails the remaining requests rather than skipping them.
func (b *Bank) ProcessBatch(ctx context.Context, txs []*Transaction, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	results := make([]BatchResult, len(txs))
	wg := sync.WaitGroup{}

	pool, err := ants.NewPoolWithFunc(workers, func(i interface{}) {
		defer wg.Done()
		task := i.(batchTask)
		receipt, err := b.Process(ctx, task.tx)
		results[task.idx] = BatchResult{Receipt: receipt, Err: err}
	})
	if err != nil {
		for idx := range results {
			results[idx].Err = err
		}
		return results
	}
	defer pool.Release()

	for idx, tx := range txs {
		wg.Add(1)
		if err = pool.Invoke(batchTask{idx: idx, tx: tx}); err != nil {
			wg.Done()
			results[idx].Err = err
		}
	}

	wg.Wait()
	return results
}
