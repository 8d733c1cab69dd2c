package bank

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func TestLockTable_EntriesReleased(t *testing.T) {
	lt := newLockTable()
	a := solana.PublicKey{1}
	b := solana.PublicKey{2}

	unlock := lt.lock(b, a, b)
	assert.Equal(t, 2, lt.locks.Count())
	unlock()
	assert.Equal(t, 0, lt.locks.Count())
}

func TestLockTable_MutualExclusion(t *testing.T) {
	lt := newLockTable()
	shared := solana.PublicKey{7}

	const workers = 16
	const rounds = 200

	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		own := solana.PublicKey{byte(100 + i)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				unlock := lt.lock(own, shared)
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*rounds, counter)
	assert.Equal(t, 0, lt.locks.Count())
}
