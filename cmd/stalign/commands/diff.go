package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
)

// outlineIndent is the indentation of one tree level in the diff outline.
const outlineIndent = "  "

func newDiffCommand(opts *globalOptions) *cobra.Command {
	var simplified bool

	cmd := &cobra.Command{
		Use:   "diff file1 file2",
		Short: "Line diff of two structural trees",
		Long: `Print the structural trees of two files as indented outlines, one node per
line, and show the line diff between them.

Examples:
  stalign diff a.db b.db          # Full labels with positions
  stalign diff -s a.db b.db       # Grammar symbols only`,
		Args: cobra.ExactArgs(pairArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeCLI, func(ctx context.Context, sess *session) error {
				left, right, err := sess.buildPair(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				label := nodeLabel
				if simplified {
					label = func(n *stree.Node) string { return n.Label.Simplified() }
				}

				return writeTreeDiff(cmd.OutOrStdout(), left, right, label)
			})
		},
	}

	cmd.Flags().BoolVarP(&simplified, "simplified", "s", false, "compare grammar symbols only")

	return cmd
}

// outline renders tree in pre-order, one indented node label per line.
func outline(tree *stree.Node, label func(*stree.Node) string) string {
	var sb strings.Builder

	type item struct {
		node  *stree.Node
		depth int
	}

	stack := []item{{node: tree}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sb.WriteString(strings.Repeat(outlineIndent, top.depth))
		sb.WriteString(label(top.node))
		sb.WriteByte('\n')

		for idx := len(top.node.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, item{node: top.node.Children[idx], depth: top.depth + 1})
		}
	}

	return sb.String()
}

func writeTreeDiff(w io.Writer, left, right *structure, label func(*stree.Node) string) error {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToChars(outline(left.tree, label), outline(right.tree, label))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	header := color.New(color.Bold)
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	header.Fprintf(w, "--- %s\n+++ %s\n", left.name, right.name)

	for _, d := range diffs {
		for line := range strings.Lines(d.Text) {
			line = strings.TrimSuffix(line, "\n")

			var err error

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				_, err = removed.Fprintln(w, "-"+line)
			case diffmatchpatch.DiffInsert:
				_, err = added.Fprintln(w, "+"+line)
			case diffmatchpatch.DiffEqual:
				_, err = fmt.Fprintln(w, " "+line)
			}

			if err != nil {
				return fmt.Errorf("write diff: %w", err)
			}
		}
	}

	return nil
}
