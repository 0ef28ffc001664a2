package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/joshuapare/markpatch/render/output"
	"github.com/joshuapare/markpatch/render/reconcile"
)

var diffTrace bool

func init() {
	cmd := newDiffCmd()
	cmd.Flags().BoolVar(&diffTrace, "trace", false, "Print every output mutation")
	rootCmd.AddCommand(cmd)
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old.md> <new.md>",
		Short: "Show the output mutations between two versions of a document",
		Long: `The diff command renders the first file, reconciles the second
against it and reports what the reconciler had to change.

Example:
  mdpatch diff before.md after.md
  mdpatch diff before.md after.md --trace
  mdpatch diff before.md after.md --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args)
		},
	}
	return cmd
}

// DiffResult is the JSON form of a diff.
type DiffResult struct {
	Old   string          `json:"old"`
	New   string          `json:"new"`
	Stats reconcile.Stats `json:"stats"`
	Ops   []string        `json:"ops,omitempty"`
}

func runDiff(args []string) error {
	oldPath := args[0]
	newPath := args[1]

	printVerbose("Comparing %s and %s...\n", oldPath, newPath)

	session, err := newSession(diffTrace)
	if err != nil {
		return err
	}
	if _, err := session.UpdateFile(oldPath); err != nil {
		return fmt.Errorf("failed to render %s: %w", oldPath, err)
	}
	res, err := session.UpdateFile(newPath)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", newPath, err)
	}

	result := DiffResult{Old: oldPath, New: newPath, Stats: res.Stats}
	for _, op := range session.Ops() {
		result.Ops = append(result.Ops, describeOp(op))
	}

	if jsonOut {
		return printJSON(result)
	}

	printInfo("%s -> %s: %s\n", oldPath, newPath, statsLine(res.Stats))
	if res.Swapped {
		printInfo("document root replaced\n")
	}
	for _, op := range result.Ops {
		printInfo("  %s\n", op)
	}
	return nil
}

func describeOp(op output.Op[*html.Node]) string {
	switch {
	case op.Type == output.OpDetach:
		return "detach " + describeNode(op.Child)
	case op.Ref != nil:
		return fmt.Sprintf("insert %s into %s before %s",
			describeNode(op.Child), describeNode(op.Parent), describeNode(op.Ref))
	default:
		return fmt.Sprintf("append %s to %s", describeNode(op.Child), describeNode(op.Parent))
	}
}

const maxTextLen = 24

func describeNode(n *html.Node) string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Type == html.TextNode:
		s := n.Data
		if r := []rune(s); len(r) > maxTextLen {
			s = string(r[:maxTextLen]) + "..."
		}
		return strconv.Quote(s)
	case n.Type == html.ElementNode:
		return "<" + n.Data + ">"
	default:
		return fmt.Sprintf("node(%d)", n.Type)
	}
}
