package lock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tair/stock-reconciler/pkg/lock"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	locks := lock.NewKeyed()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("product:1")
			defer locks.Unlock("product:1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyed_IndependentKeys(t *testing.T) {
	locks := lock.NewKeyed()
	locks.Lock("product:1")

	done := make(chan struct{})
	go func() {
		locks.Lock("product:2")
		locks.Unlock("product:2")
		close(done)
	}()

	// A different key must not block behind the held one
	<-done
	locks.Unlock("product:1")
}

func TestKeyed_LockAll(t *testing.T) {
	locks := lock.NewKeyed()
	keys := []string{"product:1", "product:2", "product:3"}

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.LockAll(keys)
			defer locks.UnlockAll(keys)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
