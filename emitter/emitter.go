// Package emitter writes an incrementing decimal counter, one line per
// write, at a fixed pace.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the pause between two writes (about 10 kHz).
const DefaultInterval = 100 * time.Microsecond

// ErrWrite wraps the write error that stopped Run under FailOnWriteError.
var ErrWrite = errors.New("counter write failed")

// WriteErrorPolicy decides what a failed write does to the loop.
type WriteErrorPolicy int

const (
	// IgnoreWriteErrors keeps emitting without reporting anything.
	IgnoreWriteErrors WriteErrorPolicy = iota
	// LogWriteErrors logs each failure and keeps emitting.
	LogWriteErrors
	// FailOnWriteError stops Run with the first failure.
	FailOnWriteError
)

func (p WriteErrorPolicy) String() string {
	switch p {
	case IgnoreWriteErrors:
		return "ignore"
	case LogWriteErrors:
		return "log"
	case FailOnWriteError:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseWriteErrorPolicy accepts "ignore", "log" or "fail".
func ParseWriteErrorPolicy(s string) (WriteErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "":
		return IgnoreWriteErrors, nil
	case "log":
		return LogWriteErrors, nil
	case "fail":
		return FailOnWriteError, nil
	default:
		return 0, fmt.Errorf("invalid write error policy %q (valid: ignore, log, fail)", s)
	}
}

// Config controls pacing and the counter range.
type Config struct {
	Interval     time.Duration
	Start        uint64
	Count        uint64 // lines to emit, 0 means run until cancelled
	OnWriteError WriteErrorPolicy
}

// DefaultConfig counts from 0 forever at DefaultInterval and ignores
// write errors.
func DefaultConfig() Config {
	return Config{
		Interval:     DefaultInterval,
		OnWriteError: IgnoreWriteErrors,
	}
}

// Stats is a snapshot of the emitter's progress.
type Stats struct {
	Emitted     uint64 // lines attempted
	WriteErrors uint64
	Next        uint64 // value of the next line
	LastError   error
}

// ContextWriter is implemented by writers whose writes can be abandoned
// when the context ends, such as a serial port blocked by flow control.
type ContextWriter interface {
	WriteContext(ctx context.Context, p []byte) (int, error)
}

// Emitter owns the counter. Run must not be called concurrently; Stats may
// be called from any goroutine.
type Emitter struct {
	w      io.Writer
	config Config
	logger *zap.Logger

	next        atomic.Uint64
	emitted     atomic.Uint64
	writeErrors atomic.Uint64
	lastErr     atomic.Pointer[error]
}

// New returns an Emitter writing to w. A nil logger disables logging.
func New(w io.Writer, config Config, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Emitter{
		w:      w,
		config: config,
		logger: logger,
	}
	e.next.Store(config.Start)
	return e
}

// AppendLine appends n in base 10 followed by '\n'.
func AppendLine(buf []byte, n uint64) []byte {
	buf = strconv.AppendUint(buf, n, 10)
	return append(buf, '\n')
}

// Run writes lines until ctx is cancelled, Count lines have been written,
// or, under FailOnWriteError, a write fails. Each line is a single Write
// call, or WriteContext when the writer is a ContextWriter. The counter
// advances whether or not the write succeeded and wraps from
// math.MaxUint64 to 0. A write cut short by cancellation is not counted.
func (e *Emitter) Run(ctx context.Context) error {
	e.logger.Info("emitter started",
		zap.Uint64("start", e.next.Load()),
		zap.Uint64("count", e.config.Count),
		zap.Duration("interval", e.config.Interval),
		zap.Stringer("on_write_error", e.config.OnWriteError),
	)

	var timer *time.Timer
	if e.config.Interval > 0 {
		timer = time.NewTimer(e.config.Interval)
		timer.Stop()
		defer timer.Stop()
	}

	write := e.w.Write
	if cw, ok := e.w.(ContextWriter); ok {
		write = func(p []byte) (int, error) { return cw.WriteContext(ctx, p) }
	}

	buf := make([]byte, 0, 24)
	var lines uint64
	for {
		if err := ctx.Err(); err != nil {
			e.stopped(err)
			return err
		}

		n := e.next.Load()
		buf = AppendLine(buf[:0], n)
		_, err := write(buf)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// interrupted line is not counted
			e.stopped(ctx.Err())
			return ctx.Err()
		}
		e.next.Store(n + 1)
		e.emitted.Add(1)
		lines++

		if err != nil {
			writeErr := err
			e.writeErrors.Add(1)
			e.lastErr.Store(&writeErr)
			switch e.config.OnWriteError {
			case LogWriteErrors:
				e.logger.Warn("write failed", zap.Uint64("value", n), zap.Error(writeErr))
			case FailOnWriteError:
				failErr := fmt.Errorf("%w at value %d: %w", ErrWrite, n, writeErr)
				e.stopped(failErr)
				return failErr
			}
		}

		if e.config.Count > 0 && lines >= e.config.Count {
			e.stopped(nil)
			return nil
		}

		if timer == nil {
			continue
		}
		timer.Reset(e.config.Interval)
		select {
		case <-ctx.Done():
			e.stopped(ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Emitter) stopped(reason error) {
	stats := e.Stats()
	e.logger.Info("emitter stopped",
		zap.Uint64("emitted", stats.Emitted),
		zap.Uint64("write_errors", stats.WriteErrors),
		zap.Uint64("next", stats.Next),
		zap.NamedError("reason", reason),
	)
}

// Stats returns the current counters.
func (e *Emitter) Stats() Stats {
	stats := Stats{
		Emitted:     e.emitted.Load(),
		WriteErrors: e.writeErrors.Load(),
		Next:        e.next.Load(),
	}
	if err := e.lastErr.Load(); err != nil {
		stats.LastError = *err
	}
	return stats
}
