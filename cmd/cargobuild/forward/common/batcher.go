package common

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	cmdmetrics "github.com/loykin/cargobuild/cmd/cargobuild/metrics"
)

// flushRetries bounds how often a failed flush is retried before the batch is dropped.
const flushRetries = 3

// Batcher provides buffering, timing, retry and stop coordination for forwarders.
type Batcher struct {
	Ch            chan string
	BatchSize     int
	BatchInterval time.Duration
	name          string
	filter        *filter
	wg            sync.WaitGroup
	stopOnce      sync.Once
	stopCh        chan struct{}
}

func NewBatcher(size int, interval time.Duration, includes, excludes []string, name string) *Batcher {
	return &Batcher{
		Ch:            make(chan string, size*2),
		BatchSize:     size,
		BatchInterval: interval,
		name:          name,
		filter:        &filter{includes: includes, excludes: excludes},
		stopCh:        make(chan struct{}),
	}
}

func (b *Batcher) Enqueue(line string) {
	if !b.filter.allow(line) {
		cmdmetrics.ForwardDropped(b.name, "filtered")
		return
	}
	select {
	case b.Ch <- line:
		cmdmetrics.ForwardEnqueued(b.name)
	default:
		// buffer full, drop with a warning to avoid blocking the build output
		cmdmetrics.ForwardDropped(b.name, "buffer_full")
		slog.Warn("forward buffer full; dropping line", "forwarder", b.name)
	}
}

// Start runs the batching loop, handing full or timed-out batches to flush.
// Failed flushes are retried with exponential backoff and then dropped. A
// flush returning *PartialError is retried with the remaining lines only.
func (b *Batcher) Start(flush func(lines []string) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		buf := make([]string, 0, b.BatchSize)
		ticker := time.NewTicker(b.BatchInterval)
		defer ticker.Stop()
		doFlush := func() {
			if len(buf) == 0 {
				return
			}
			start := time.Now()
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 100 * time.Millisecond
			bo.MaxInterval = 2 * time.Second
			pending := buf
			err := backoff.Retry(func() error {
				err := flush(pending)
				var pe *PartialError
				if errors.As(err, &pe) {
					if len(pe.Remaining) == 0 {
						return backoff.Permanent(err)
					}
					pending = pe.Remaining
				}
				return err
			}, backoff.WithMaxRetries(bo, flushRetries))
			cmdmetrics.ForwardFlushObserve(b.name, len(buf), time.Since(start), err == nil)
			if err != nil {
				slog.Error("forward flush failed", "forwarder", b.name, "lines", len(buf), "error", err)
			}
			buf = buf[:0]
		}
		for {
			select {
			case <-b.stopCh:
				// the process is about to exit; ship whatever is still queued
			drain:
				for {
					select {
					case line := <-b.Ch:
						buf = append(buf, line)
						if len(buf) >= b.BatchSize {
							doFlush()
						}
					default:
						break drain
					}
				}
				doFlush()
				return
			case <-ticker.C:
				doFlush()
			case line := <-b.Ch:
				buf = append(buf, line)
				if len(buf) >= b.BatchSize {
					doFlush()
				}
			}
		}
	}()
}

// Stop flushes pending lines and waits for the loop to finish.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}
