package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/markpatch/cmd/mdpatch/logger"
	"github.com/joshuapare/markpatch/pkg/preview"
	"github.com/joshuapare/markpatch/render/reconcile"
)

var renderOut string

func init() {
	cmd := newRenderCmd()
	cmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write HTML to file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file.md>",
		Short: "Render a markdown file to HTML",
		Long: `The render command parses a markdown file and writes its HTML.

Example:
  mdpatch render README.md
  mdpatch render README.md --out README.html
  mdpatch render notes.md --raw sanitize --images placeholder`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args)
		},
	}
	return cmd
}

func runRender(args []string) error {
	session, err := newSession(false)
	if err != nil {
		return err
	}

	res, err := session.UpdateFile(args[0])
	if err != nil {
		return err
	}

	out := outputPath(renderOut)
	if err := writeOutput(out, res.HTML); err != nil {
		return err
	}
	logPass(args[0], res)
	if out != "" {
		printVerbose("Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(res.HTML))))
	}
	return nil
}

func newSession(trace bool) (*preview.Session, error) {
	opts, err := cfg.sessionOptions()
	if err != nil {
		return nil, err
	}
	opts.Trace = trace
	return preview.New(opts), nil
}

// outputPath resolves the output file from a flag and the configuration.
// An empty result means stdout.
func outputPath(flag string) string {
	out := flag
	if out == "" {
		out = cfg.Output
	}
	if out == "-" {
		return ""
	}
	return out
}

func writeOutput(path, html string) error {
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, html)
		return err
	}
	if err := os.WriteFile(path, []byte(html+"\n"), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func logPass(path string, res preview.Result) {
	logger.Info("rendered",
		"file", path,
		"bytes", len(res.HTML),
		"mutations", res.Stats.Mutations(),
		"identical", res.Stats.Identical,
	)
}

// statsLine summarizes a pass in one line.
func statsLine(s reconcile.Stats) string {
	if s.Identical {
		return "no changes"
	}
	return fmt.Sprintf("%s created, %s updated, %s replaced, %s moved, %s removed, %s kept",
		humanize.Comma(int64(s.Created)),
		humanize.Comma(int64(s.Updated)),
		humanize.Comma(int64(s.Replaced)),
		humanize.Comma(int64(s.Moved)),
		humanize.Comma(int64(s.Removed)),
		humanize.Comma(int64(s.Kept)),
	)
}
