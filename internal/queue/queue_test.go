package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 1000; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) refused on an open queue", i)
		}
	}
	if q.Len() != 1000 {
		t.Errorf("Expected backlog 1000, got %d", q.Len())
	}

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		v, ok := q.Pop(ctx)
		if !ok || v != i {
			t.Fatalf("Expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
}

func TestPopWaitsForPush(t *testing.T) {
	q := New[string]()
	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop(context.Background())
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("Expected hello, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestPopHonoursContext(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := q.Pop(ctx); ok {
		t.Error("Expected Pop to give up when the context expires")
	}
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Close()

	if q.Push(3) {
		t.Error("Expected Push to fail after Close")
	}

	ctx := context.Background()
	for _, want := range []int{1, 2} {
		if v, ok := q.Pop(ctx); !ok || v != want {
			t.Errorf("Expected %d, got %d (ok=%v)", want, v, ok)
		}
	}
	if _, ok := q.Pop(ctx); ok {
		t.Error("Expected closed, drained queue to report !ok")
	}
	q.Close()
}

func TestConcurrentProducers(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	if q.Len() != 4000 {
		t.Errorf("Expected 4000 items, got %d", q.Len())
	}
}
