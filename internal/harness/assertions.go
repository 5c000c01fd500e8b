package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/payload"
)

// AssertionContext gives assertions access to the cache.
type AssertionContext struct {
	DB  *client.Database
	Ctx context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Document)
			if event.Error != "" {
				fmt.Fprintf(&buf, " error=%s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertDocument:
			err = assertDocument(actx, a)
		case AssertPending:
			err = assertPending(actx, a)
		case AssertMissing:
			err = assertMissing(actx, a)
		case AssertOpCount:
			err = assertOpCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func getSnapshot(actx *AssertionContext, path string) (*client.Snapshot, error) {
	ref, err := actx.DB.Doc(path)
	if err != nil {
		return nil, err
	}
	return ref.Get(actx.Ctx)
}

// assertDocument decodes the document and compares the expected fields.
// Expected values go through the same write path as flow data, so markers
// such as $timestamp and $ref compare against decoded values.
func assertDocument(actx *AssertionContext, a Assertion) error {
	snap, err := getSnapshot(actx, a.Document)
	if err != nil {
		return err
	}
	if !snap.Exists {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("document %s to exist", a.Document),
			Actual:   "document not cached",
		}
	}

	behavior, err := decode.ParseServerTimestampBehavior(a.ServerTimestamps)
	if err != nil {
		return err
	}
	actual, err := snap.Data(behavior)
	if err != nil {
		return err
	}
	expected, err := expectedData(actx.DB, a.Expect, behavior)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}

	for _, key := range sortedKeys(expected) {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertDocument,
				Expected: fmt.Sprintf("field %q to exist in %s", key, a.Document),
				Actual:   fmt.Sprintf("fields present: %v", sortedKeys(actual)),
			}
		}
		if !decode.Equal(expected[key], got) {
			return &AssertionError{
				Type:     AssertDocument,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected[key], expected[key]),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, got, got),
			}
		}
	}

	for _, field := range a.Absent {
		if _, err := snap.Get(field, behavior); err == nil {
			return &AssertionError{
				Type:     AssertDocument,
				Expected: fmt.Sprintf("field %q to be absent from %s", field, a.Document),
				Actual:   "field exists",
			}
		}
	}
	return nil
}

// expectedData converts YAML expectations into decoded host values.
func expectedData(db *client.Database, expect map[string]any, behavior decode.ServerTimestampBehavior) (map[string]any, error) {
	converted, err := payload.ConvertMap(db, expect)
	if err != nil {
		return nil, err
	}
	fields, err := db.Reader().ParseValue(converted)
	if err != nil {
		return nil, err
	}
	decoded, err := db.Decoder().Convert(fields, behavior)
	if err != nil {
		return nil, err
	}
	m, _ := decoded.(map[string]any)
	return m, nil
}

func assertPending(actx *AssertionContext, a Assertion) error {
	snap, err := getSnapshot(actx, a.Document)
	if err != nil {
		return err
	}
	if !snap.Exists {
		return &AssertionError{
			Type:     AssertPending,
			Expected: fmt.Sprintf("document %s to exist", a.Document),
			Actual:   "document not cached",
		}
	}
	if snap.HasPendingWrites != *a.Pending {
		return &AssertionError{
			Type:     AssertPending,
			Expected: fmt.Sprintf("pending=%t for %s", *a.Pending, a.Document),
			Actual:   fmt.Sprintf("pending=%t", snap.HasPendingWrites),
		}
	}
	return nil
}

func assertMissing(actx *AssertionContext, a Assertion) error {
	snap, err := getSnapshot(actx, a.Document)
	if err != nil {
		return err
	}
	if snap.Exists {
		return &AssertionError{
			Type:     AssertMissing,
			Expected: fmt.Sprintf("document %s not to be cached", a.Document),
			Actual:   fmt.Sprintf("document exists at revision %s", snap.Revision),
		}
	}
	return nil
}

// assertOpCount checks the op appears exactly the specified number of times.
func assertOpCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertOpCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Ops) && event.Op == a.Ops[next] {
			next++
		}
	}

	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", a.Ops),
			Actual:   fmt.Sprintf("matched %v, then no %s", a.Ops[:next], a.Ops[next]),
			Trace:    trace,
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
