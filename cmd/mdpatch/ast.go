package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/markpatch/pkg/markdown"
	"github.com/joshuapare/markpatch/pkg/mdast"
	"github.com/joshuapare/markpatch/render/fingerprint"
)

var astHashes bool

func init() {
	cmd := newAstCmd()
	cmd.Flags().BoolVar(&astHashes, "hashes", false, "Show node fingerprints")
	rootCmd.AddCommand(cmd)
}

func newAstCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast <file.md>",
		Short: "Print the syntax tree of a markdown file",
		Long: `The ast command prints the parsed syntax tree as an indented outline.

Example:
  mdpatch ast README.md
  mdpatch ast README.md --hashes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAst(args)
		},
	}
	return cmd
}

func runAst(args []string) error {
	opts, err := cfg.sessionOptions()
	if err != nil {
		return err
	}
	doc, err := markdown.New(opts.Parser).ParseFile(args[0])
	if err != nil {
		return err
	}
	if astHashes {
		fingerprint.Hash(doc)
	}
	return mdast.DumpWith(os.Stdout, doc, mdast.DumpOptions{ShowHashes: astHashes})
}
