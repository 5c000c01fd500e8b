package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/payload"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/store"
	"github.com/roach88/firedoc/internal/testutil"
	"github.com/roach88/firedoc/internal/wire"
)

// ProjectID is the project every scenario runs in.
const ProjectID = "test-project"

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and revisions.
type Harness struct {
	store  *store.Store
	db     *client.Database
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory cache
// 2. Cache setup documents as server snapshots
// 3. Apply flow steps, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:",
		store.WithRevisionGenerator(testutil.NewSequentialRevisionGenerator("")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store: st,
		db: client.New(model.NewDatabaseID(ProjectID, scenario.Database),
			client.WithStore(st),
			client.WithClock(clock),
			client.WithLogger(logger),
		),
		clock:  clock,
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{DB: h.db, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup caches every setup document as a server snapshot.
func (h *Harness) executeSetup(ctx context.Context, setup []SetupStep, result *Result) error {
	for i, step := range setup {
		ref, err := h.db.Doc(step.Document)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		data, err := payload.ConvertMap(h.db, step.Fields)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		w, err := h.db.Reader().ParseSet(data, false)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if len(w.Transforms) > 0 {
			return fmt.Errorf("setup step %d: server snapshots cannot contain transforms", i)
		}

		snap, err := h.db.Put(ctx, wire.Document{Name: ref.Name(), Fields: w.Data})
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}

		result.AddEvent(TraceEvent{Op: OpPut, Document: ref.Path(), Revision: snap.Revision})
		h.logger.Info("setup step completed", "step", i, "document", ref.Path(), "revision", snap.Revision)
	}
	return nil
}

// executeFlow applies every flow step and validates expect clauses.
//
// A step that fails with the expected status code is recorded in the trace
// and execution continues. Any other mismatch is a result error, not a Run
// error, so the trace stays available for diagnosis.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		ref, err := h.db.Doc(step.Document)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		event := TraceEvent{Op: step.Op, Document: ref.Path()}
		writeResult, err := h.apply(ctx, ref, step)
		if err != nil {
			event.Error = string(status.CodeOf(err))
			if event.Error == "" {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
		} else if writeResult != nil {
			event.Revision = writeResult.Revision
			event.Transforms = writeResult.Transforms
		}
		result.AddEvent(event)

		h.checkExpect(i, step, event, err, result)

		h.logger.Info("flow step completed",
			"step", i,
			"op", step.Op,
			"document", ref.Path(),
			"error", event.Error,
		)
	}
	return nil
}

// apply runs one flow step. Delete yields a nil WriteResult.
func (h *Harness) apply(ctx context.Context, ref *client.DocumentRef, step FlowStep) (*client.WriteResult, error) {
	if step.Op == OpDelete {
		return nil, ref.Delete(ctx)
	}

	data, err := payload.ConvertMap(h.db, step.Data)
	if err != nil {
		return nil, err
	}

	switch step.Op {
	case OpSet:
		return ref.Set(ctx, data)
	case OpMerge:
		return ref.Set(ctx, data, client.Merge())
	case OpUpdate:
		return ref.Update(ctx, data)
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) checkExpect(index int, step FlowStep, event TraceEvent, err error, result *Result) {
	wantError := ""
	if step.Expect != nil {
		wantError = step.Expect.Error
	}

	switch {
	case wantError == "" && err != nil:
		result.AddError(fmt.Sprintf("flow[%d] %s %s: unexpected error: %v", index, step.Op, step.Document, err))
		return
	case wantError != "" && err == nil:
		result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %s error, got success", index, step.Op, step.Document, wantError))
		return
	case wantError != "" && event.Error != wantError:
		result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %s error, got %v", index, step.Op, step.Document, wantError, err))
		return
	}

	if step.Expect != nil && step.Expect.Transforms != nil && err == nil {
		if got := len(event.Transforms); got != *step.Expect.Transforms {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %d transforms, got %d",
				index, step.Op, step.Document, *step.Expect.Transforms, got))
		}
	}
}
