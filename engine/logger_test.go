package engine

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestLogger_DefaultIsNoop(t *testing.T) {
	SetLogger(nil)

	if Logger() == nil {
		t.Fatal("Logger should never return nil")
	}
}

func TestLogger_SetAfterFirstUse(t *testing.T) {
	SetLogger(nil)
	Logger()

	custom := zap.NewNop()
	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("SetLogger after first use should still take effect")
	}

	SetLogger(nil)
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	SetLogger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if Logger() == nil {
					t.Error("Logger returned nil under concurrency")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetLogger(zap.NewNop())
			}
		}()
	}
	wg.Wait()

	SetLogger(nil)
}
