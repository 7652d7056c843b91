package engine

import (
	"sync"
	"testing"
)

func TestSpinLockMutualExclusion(t *testing.T) {
	var lock spinLock
	var counter int
	var wg sync.WaitGroup

	const goroutines = 16
	const iterations = 1000

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*iterations {
		t.Errorf("counter = %d, want %d", counter, goroutines*iterations)
	}
}

func TestSpinLockTryLock(t *testing.T) {
	var lock spinLock
	if !lock.TryLock() {
		t.Fatal("expected first TryLock to succeed")
	}
	if lock.TryLock() {
		t.Fatal("expected second TryLock to fail while held")
	}
	lock.Unlock()
	if !lock.TryLock() {
		t.Fatal("expected TryLock to succeed after unlock")
	}
}
