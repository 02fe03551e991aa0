package deleter

import (
	"context"
	"sync"

	"github.com/Sunrisies/rustkill/internal/scanner"
)

type Progress struct {
	Completed int
	Total     int
	Path      string
	Err       error
}

type Failure struct {
	Path string
	Err  error
}

type Summary struct {
	Successes []*scanner.FileEntry
	Failures  []Failure
	Skipped   int // entries already Deleting/Deleted when the request arrived
	Freed     uint64
}

// DeleteAll removes all entries concurrently through the lifecycle. It sends
// a Progress update for each finished entry on the provided channel
// (best-effort, never blocking) and returns a final Summary when all work is
// done. The progress channel is not closed here.
func (l *Lifecycle) DeleteAll(ctx context.Context, entries []*scanner.FileEntry, concurrency int, progress chan<- Progress) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	total := len(entries)
	jobs := make(chan *scanner.FileEntry)
	var wg sync.WaitGroup

	var mu sync.Mutex
	sum := Summary{}
	completed := 0

	worker := func() {
		defer wg.Done()
		for e := range jobs {
			attempted, err := l.RequestDelete(ctx, e)
			mu.Lock()
			switch {
			case !attempted:
				sum.Skipped++
			case err != nil:
				sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: err})
			default:
				sum.Successes = append(sum.Successes, e)
				sum.Freed += e.SizeRaw
			}
			completed++
			if progress != nil {
				select {
				case progress <- Progress{Completed: completed, Total: total, Path: e.Path, Err: err}:
				default:
				}
			}
			mu.Unlock()
		}
	}

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}
	go func() {
		defer close(jobs)
		for _, e := range entries {
			select {
			case <-ctx.Done():
				return
			case jobs <- e:
			}
		}
	}()
	wg.Wait()
	return sum
}
