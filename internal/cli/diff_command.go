package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/codalotl/rangediff/internal/diff"
	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newDiffCommand(env *runEnv) *cobra.Command {
	var (
		contextLines     int
		color            string
		ignoreWhitespace bool
	)
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print a unified diff of two files (exit 1 if they differ)",
		Long:  "Print a unified diff of OLD and NEW. Either may be - for stdin. Exits 0 when the files are equal and 1 when they differ.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("context") {
				contextLines = cfg.Diff.ContextLines
			}
			if contextLines < 0 {
				return usageErrorf("--context must be >= 0")
			}
			if !cmd.Flags().Changed("color") {
				color = cfg.UI.Color
			}
			useColor, err := resolveColor(color, env.out)
			if err != nil {
				return err
			}
			opts := cfg.DiffOptions(env.logger)
			if cmd.Flags().Changed("ignore-whitespace") {
				opts.IgnoreWhitespace = ignoreWhitespace
			}

			oldText, err := readInput(env, args[0])
			if err != nil {
				return ExitError{Code: 1, Err: err}
			}
			newText, err := readInput(env, args[1])
			if err != nil {
				return ExitError{Code: 1, Err: err}
			}

			d := diff.DiffTextOptions(oldText, newText, opts)
			rendered := d.RenderUnifiedDiff(useColor, args[0], args[1], contextLines)
			if rendered == "" {
				return nil
			}
			added, deleted := d.Stats()
			env.logger.Debug("diff", "old", args[0], "new", args[1], "added", added, "deleted", deleted)
			fmt.Fprintln(env.out, rendered)
			return ExitError{Code: 1}
		},
	}
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "unchanged lines of context around each change")
	cmd.Flags().StringVar(&color, "color", "auto", "colorize output: auto, always, or never")
	cmd.Flags().BoolVarP(&ignoreWhitespace, "ignore-whitespace", "w", false, "ignore all whitespace when comparing lines")
	return cmd
}

func newDiff3Command(env *runEnv) *cobra.Command {
	var (
		markers    bool
		sideBySide int
	)
	cmd := &cobra.Command{
		Use:   "diff3 ANCESTOR LEFT RIGHT",
		Short: "Compare two files against their common ancestor",
		Long: "Compare LEFT and RIGHT against ANCESTOR. By default, prints one line per region with its kind and 1-based line ranges.\n" +
			"With --markers, prints the merged text with conflict markers and exits 1 if there are conflicts.\n" +
			"With --side-by-side W, prints the three texts in columns W cells wide.",
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if markers && cmd.Flags().Changed("side-by-side") {
				return usageErrorf("--markers and --side-by-side are mutually exclusive")
			}
			if cmd.Flags().Changed("side-by-side") && sideBySide < 1 {
				return usageErrorf("--side-by-side must be >= 1")
			}
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}

			texts := make([]string, 3)
			for i, path := range args {
				texts[i], err = readInput(env, path)
				if err != nil {
					return ExitError{Code: 1, Err: err}
				}
			}
			m := diff.Merge3Text(texts[0], texts[1], texts[2], cfg.DiffOptions(env.logger))

			switch {
			case markers:
				merged, conflicts := m.RenderMarkers(diff.Labels{Ancestor: args[0], Left: args[1], Right: args[2]})
				io.WriteString(env.out, merged)
				if conflicts > 0 {
					fmt.Fprintf(env.err, "%d conflict(s)\n", conflicts)
					return ExitError{Code: 1}
				}
			case sideBySide > 0:
				if table := m.RenderSideBySide(sideBySide); table != "" {
					fmt.Fprintln(env.out, table)
				}
			default:
				writeRegions(env.out, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markers, "markers", false, "print the merge with conflict markers")
	cmd.Flags().IntVar(&sideBySide, "side-by-side", 0, "print the three texts side by side, each column this many cells wide")
	return cmd
}

// writeRegions prints one line per hunk of m: its kind, then the ancestor, left, and right line ranges.
func writeRegions(w io.Writer, m diff.Merge3) {
	for _, h := range m.Hunks {
		fmt.Fprintf(w, "%-12s ancestor=%s left=%s right=%s\n", h.Kind,
			lineRange(h.AncestorLine, h.AncestorText),
			lineRange(h.LeftLine, h.LeftText),
			lineRange(h.RightLine, h.RightText))
	}
}

// lineRange formats the lines of text, which starts at 0-based line start, as "first,count" with a 1-based first line. Empty text is reported as "start,0", the line it
// follows.
func lineRange(start int, text string) string {
	count := len(linecmp.Split(text))
	if count == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	return fmt.Sprintf("%d,%d", start+1, count)
}

// readInput returns the contents of path, or of stdin if path is "-".
func readInput(env *runEnv, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(env.in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// resolveColor decides whether to colorize output written to w. "auto" colorizes terminals unless NO_COLOR is set.
func resolveColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, usageErrorf("invalid --color %q (want auto, always, or never)", mode)
	}
}
