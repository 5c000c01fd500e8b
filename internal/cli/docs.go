package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/status"
)

// snapshotOutput is the JSON form of a cached document.
type snapshotOutput struct {
	Path       string         `json:"path"`
	Revision   string         `json:"revision"`
	Pending    bool           `json:"pending"`
	CreateTime string         `json:"createTime,omitempty"`
	UpdateTime string         `json:"updateTime,omitempty"`
	Data       map[string]any `json:"data"`
}

func newSnapshotOutput(snap *client.Snapshot, data map[string]any) snapshotOutput {
	out := snapshotOutput{
		Path:     snap.Ref.Path(),
		Revision: snap.Revision,
		Pending:  snap.HasPendingWrites,
		Data:     jsonValue(data).(map[string]any),
	}
	if !snap.CreateTime.IsZero() {
		out.CreateTime = snap.CreateTime.String()
	}
	if !snap.UpdateTime.IsZero() {
		out.UpdateTime = snap.UpdateTime.String()
	}
	return out
}

// writeSnapshot renders a snapshot header line followed by its fields.
func writeSnapshot(b *strings.Builder, snap *client.Snapshot, data map[string]any) {
	fmt.Fprintf(b, "%s revision=%s", snap.Ref.Path(), snap.Revision)
	if snap.HasPendingWrites {
		b.WriteString(" pending")
	}
	b.WriteByte('\n')
	formatFields(b, data)
}

// NewPutCommand creates the put command.
func NewPutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>...",
		Short: "Cache REST documents as server snapshots",
		Long: `Store one or more REST document JSON files in the local cache.

A stored snapshot replaces the cached document and discards its pending
local writes.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, opts, args)
		},
	}
}

func runPut(cmd *cobra.Command, opts *RootOptions, files []string) error {
	f := newFormatter(cmd, opts)

	sess, err := openSession(cmd, opts, f, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	type putResult struct {
		Path     string `json:"path"`
		Revision string `json:"revision"`
	}
	results := make([]putResult, 0, len(files))
	for _, file := range files {
		doc, err := readDocument(file)
		if err != nil {
			return f.Fail(ErrCodeParse, "put failed", err)
		}
		snap, err := sess.db.Put(cmd.Context(), doc)
		if err != nil {
			return f.Fail(ErrCodeIO, "put failed", fmt.Errorf("%s: %w", file, err))
		}
		results = append(results, putResult{Path: snap.Ref.Path(), Revision: snap.Revision})
	}

	if opts.Format == "json" {
		return f.Success(results)
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("stored %s revision=%s", r.Path, r.Revision)
	}
	return f.Success(strings.Join(lines, "\n"))
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	var behavior string

	cmd := &cobra.Command{
		Use:           "get <path>",
		Short:         "Read and decode a cached document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, behavior, args[0])
		},
	}

	cmd.Flags().StringVar(&behavior, "server-timestamps", "", "pending server timestamp behavior (none|estimate|previous, default from config)")

	return cmd
}

func runGet(cmd *cobra.Command, opts *RootOptions, behaviorFlag, path string) error {
	f := newFormatter(cmd, opts)

	sess, err := openSession(cmd, opts, f, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	behavior, err := sess.behavior(behaviorFlag)
	if err != nil {
		return f.Fail(ErrCodeConfig, "invalid server timestamp behavior", err)
	}

	ref, err := sess.db.Doc(path)
	if err != nil {
		return f.Fail(ErrCodeParse, "invalid document path", err)
	}
	snap, err := ref.Get(cmd.Context())
	if err != nil {
		return f.Fail(ErrCodeIO, "get failed", err)
	}
	if !snap.Exists {
		return f.Fail(ErrCodeIO, "get failed", status.NotFound("document %s does not exist", ref.Path()))
	}

	data, err := snap.Data(behavior)
	if err != nil {
		return f.Fail(ErrCodeParse, "decode failed", err)
	}

	if opts.Format == "json" {
		return f.Success(newSnapshotOutput(snap, data))
	}
	var b strings.Builder
	writeSnapshot(&b, snap, data)
	return f.Success(strings.TrimSuffix(b.String(), "\n"))
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var behavior string

	cmd := &cobra.Command{
		Use:           "list <collection>",
		Short:         "List the cached documents of a collection",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, behavior, args[0])
		},
	}

	cmd.Flags().StringVar(&behavior, "server-timestamps", "", "pending server timestamp behavior (none|estimate|previous, default from config)")

	return cmd
}

func runList(cmd *cobra.Command, opts *RootOptions, behaviorFlag, collection string) error {
	f := newFormatter(cmd, opts)

	sess, err := openSession(cmd, opts, f, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	behavior, err := sess.behavior(behaviorFlag)
	if err != nil {
		return f.Fail(ErrCodeConfig, "invalid server timestamp behavior", err)
	}

	snaps, err := sess.db.List(cmd.Context(), collection)
	if err != nil {
		return f.Fail(ErrCodeIO, "list failed", err)
	}

	outputs := make([]snapshotOutput, 0, len(snaps))
	var b strings.Builder
	for i, snap := range snaps {
		data, err := snap.Data(behavior)
		if err != nil {
			return f.Fail(ErrCodeParse, "decode failed", err)
		}
		outputs = append(outputs, newSnapshotOutput(snap, data))
		if i > 0 {
			b.WriteByte('\n')
		}
		writeSnapshot(&b, snap, data)
	}

	if opts.Format == "json" {
		return f.Success(outputs)
	}
	if len(snaps) == 0 {
		return f.Success(fmt.Sprintf("no documents in %s", collection))
	}
	return f.Success(strings.TrimSuffix(b.String(), "\n"))
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <path>",
		Short:         "Remove a document from the cache",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts)

			sess, err := openSession(cmd, opts, f, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			ref, err := sess.db.Doc(args[0])
			if err != nil {
				return f.Fail(ErrCodeParse, "invalid document path", err)
			}
			if err := ref.Delete(cmd.Context()); err != nil {
				return f.Fail(ErrCodeIO, "delete failed", err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]string{"path": ref.Path()})
			}
			return f.Success(fmt.Sprintf("deleted %s", ref.Path()))
		},
	}
}
