package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/payload"
	"github.com/roach88/firedoc/internal/transform"
)

// WriteOptions holds flags for the write command.
type WriteOptions struct {
	Merge  bool
	Update bool
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{}

	cmd := &cobra.Command{
		Use:   "write <path> <payload.yaml>",
		Short: "Apply a local write to a cached document",
		Long: `Apply a set (default), merge set or update to the local cache.

The payload is a YAML map. Field transforms and typed values use markers:

  updatedAt: {$serverTimestamp: true}
  visits:    {$increment: 1}
  tags:      {$arrayUnion: [a, b]}
  banned:    {$arrayRemove: [c]}
  stale:     {$delete: true}
  owner:     {$ref: users/alice}
  at:        {$timestamp: "2024-01-01T00:00:00Z"}
  avatar:    {$bytes: aGVsbG8=}
  where:     {$geo: {latitude: 1.5, longitude: 2}}

With --update, top-level keys are dotted field paths.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, rootOpts, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "merge into the existing document instead of replacing it")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "update fields of an existing document")
	cmd.MarkFlagsMutuallyExclusive("merge", "update")

	return cmd
}

// writeOutput is the JSON result of a write.
type writeOutput struct {
	Path           string                     `json:"path"`
	Revision       string                     `json:"revision"`
	LocalWriteTime string                     `json:"localWriteTime"`
	Transforms     []transform.FieldTransform `json:"transforms"`
}

func runWrite(cmd *cobra.Command, rootOpts *RootOptions, opts *WriteOptions, path, payloadFile string) error {
	f := newFormatter(cmd, rootOpts)

	sess, err := openSession(cmd, rootOpts, f, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ref, err := sess.db.Doc(path)
	if err != nil {
		return f.Fail(ErrCodeParse, "invalid document path", err)
	}

	raw, err := os.ReadFile(payloadFile)
	if err != nil {
		return f.Fail(ErrCodeIO, "failed to read payload", err)
	}
	data, err := payload.Parse(sess.db, raw)
	if err != nil {
		return f.Fail(ErrCodeParse, "invalid payload", err)
	}

	var result *client.WriteResult
	switch {
	case opts.Update:
		result, err = ref.Update(cmd.Context(), data)
	case opts.Merge:
		result, err = ref.Set(cmd.Context(), data, client.Merge())
	default:
		result, err = ref.Set(cmd.Context(), data)
	}
	if err != nil {
		return f.Fail(ErrCodeIO, "write failed", err)
	}
	f.VerboseLog("Applied %d transform(s) to %s", len(result.Transforms), ref.Path())

	out := writeOutput{
		Path:           ref.Path(),
		Revision:       result.Revision,
		LocalWriteTime: result.LocalWriteTime.String(),
		Transforms:     result.Transforms,
	}
	if out.Transforms == nil {
		out.Transforms = []transform.FieldTransform{}
	}

	if rootOpts.Format == "json" {
		return f.Success(out)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "wrote %s revision=%s at=%s", out.Path, out.Revision, out.LocalWriteTime)
	for _, ft := range out.Transforms {
		desc, err := json.Marshal(ft)
		if err != nil {
			return f.Fail(ErrCodeParse, "failed to render transform", err)
		}
		fmt.Fprintf(&b, "\n  transform %s", desc)
	}
	return f.Success(b.String())
}

