// Package session wires one invocation's full stack together: open
// the persistent store, ensure the blob directories, build the
// syscall processor at L=public with the caller-supplied privilege,
// seed the root handle, register the syscall surface with the sandbox
// engine, and run the guest module's exported entry point. Modeled on
// pkg/worker/worker.go's prepare->start->monitor->teardown shape,
// collapsed to a single synchronous invocation instead of a
// long-lived heartbeat loop.
package session

import (
	"context"
	"fmt"

	"github.com/ddaud1/faasten-host/internal/blobstore"
	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/config"
	"github.com/ddaud1/faasten-host/internal/dent"
	"github.com/ddaud1/faasten-host/internal/egress"
	"github.com/ddaud1/faasten-host/internal/hostcall"
	"github.com/ddaud1/faasten-host/internal/metrics"
	"github.com/ddaud1/faasten-host/internal/monitor"
	"github.com/ddaud1/faasten-host/internal/obslog"
	"github.com/ddaud1/faasten-host/internal/sandbox"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/ddaud1/faasten-host/internal/store"
)

// Session owns every per-invocation resource: the store handle, the
// blob directories, the scheduler/egress clients, the sandbox engine,
// and the processor they're all wired through.
type Session struct {
	store     store.Store
	scheduler *scheduler.Client
	engine    *sandbox.Engine
	processor *dent.Processor
}

// Open builds a session from cfg: the store and blob directories are
// created if absent, the privilege seed is parsed, and an optional
// scheduler connection is dialed. The processor is ready to invoke a
// guest module immediately after Open returns.
func Open(ctx context.Context, cfg config.Config, m *metrics.Registry) (*Session, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("session: open store: %w", err)
	}
	_, rootRef, err := st.Initialize()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("session: initialize root: %w", err)
	}

	blobs, err := blobstore.Open(cfg.BlobBaseDir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("session: open blobstore: %w", err)
	}

	privilege, ok := buckle.ParseComponent(cfg.PrivilegeSeed)
	if !ok {
		_ = st.Close()
		return nil, fmt.Errorf("session: invalid privilege seed %q", cfg.PrivilegeSeed)
	}
	mon := monitor.New(privilege)

	var sched *scheduler.Client
	if cfg.SchedulerAddr != "" {
		sched, err = scheduler.Dial(cfg.SchedulerAddr)
		if err != nil {
			obslog.Logger.Warn().Err(err).Str("addr", cfg.SchedulerAddr).Msg("scheduler unreachable at session start, invocations will fail")
			sched = scheduler.NewClient(nil)
		}
	} else {
		sched = scheduler.NewClient(nil)
	}

	eg := egress.NewClient(0)

	proc := dent.NewProcessor(mon, st, blobs, sched, eg, m, rootRef)

	engine := sandbox.New(ctx)
	if err := engine.Register(ctx, hostcall.Build(proc)); err != nil {
		_ = engine.Close(ctx)
		_ = st.Close()
		return nil, fmt.Errorf("session: register syscalls: %w", err)
	}

	return &Session{store: st, scheduler: sched, engine: engine, processor: proc}, nil
}

// Run loads and invokes the guest module at wasmPath, returning a
// TaskReturn summarizing the outcome and the session's final label —
// the same shape a scheduler awaits from a Gate invocation, reused
// here as the session's own result to whatever dispatched it.
func (s *Session) Run(ctx context.Context, wasmPath string) *scheduler.TaskReturn {
	if err := s.engine.LoadAndRun(ctx, wasmPath); err != nil {
		obslog.Logger.Error().Err(err).Str("module", wasmPath).Msg("guest module run failed")
		final := s.processor.GetCurrentLabel()
		return &scheduler.TaskReturn{Code: scheduler.Failure, Label: &final}
	}
	final := s.processor.GetCurrentLabel()
	return &scheduler.TaskReturn{Code: scheduler.Success, Label: &final}
}

// Close releases the engine, the scheduler connection, and the store.
func (s *Session) Close(ctx context.Context) error {
	var firstErr error
	if err := s.engine.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.scheduler.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
