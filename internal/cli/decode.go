package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/firedoc/internal/wire"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(opts *RootOptions) *cobra.Command {
	var behavior string

	cmd := &cobra.Command{
		Use:   "decode <file>...",
		Short: "Decode REST document files into host values",
		Long: `Decode one or more REST document JSON files without touching the cache.

Each file holds a single document: {"name": ..., "fields": {...}}. Files are
decoded concurrently and printed in argument order.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, opts, behavior, args)
		},
	}

	cmd.Flags().StringVar(&behavior, "server-timestamps", "", "pending server timestamp behavior (none|estimate|previous, default from config)")

	return cmd
}

// decodedDocument is one decode result.
type decodedDocument struct {
	Path string         `json:"path"`
	Data map[string]any `json:"data"`
}

func runDecode(cmd *cobra.Command, opts *RootOptions, behaviorFlag string, files []string) error {
	f := newFormatter(cmd, opts)

	sess, err := openSession(cmd, opts, f, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	behavior, err := sess.behavior(behaviorFlag)
	if err != nil {
		return f.Fail(ErrCodeConfig, "invalid server timestamp behavior", err)
	}

	results := make([]decodedDocument, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := readDocument(file)
			if err != nil {
				return err
			}
			snap, err := sess.db.Snapshot(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			data, err := snap.Data(behavior)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = decodedDocument{Path: snap.Ref.Path(), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return f.Fail(ErrCodeParse, "decode failed", err)
	}
	// Workers share f's writers, so progress is reported once they are done.
	for i, file := range files {
		f.VerboseLog("Decoded %s (%d fields)", file, len(results[i].Data))
	}

	if opts.Format == "json" {
		out := make([]decodedDocument, len(results))
		for i, r := range results {
			out[i] = decodedDocument{Path: r.Path, Data: jsonValue(r.Data).(map[string]any)}
		}
		return f.Success(out)
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.Path)
		b.WriteByte('\n')
		formatFields(&b, r.Data)
	}
	return f.Success(strings.TrimSuffix(b.String(), "\n"))
}

// readDocument loads a REST document from a JSON file.
func readDocument(path string) (wire.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wire.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	var doc wire.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return wire.Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
