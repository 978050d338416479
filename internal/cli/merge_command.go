package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/codalotl/rangediff/internal/config"
	"github.com/codalotl/rangediff/internal/textmerge"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// encodingFlags are the encoding flags shared by merge and merge-tree. Empty values fall back to the configuration.
type encodingFlags struct {
	input  string
	output string
}

func (f *encodingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "encoding", "", "encoding of the inputs (IANA or WHATWG name; default from config, else UTF-8)")
	cmd.Flags().StringVar(&f.output, "output-encoding", "", "encoding of the output (default from config, else UTF-8)")
}

func (f *encodingFlags) resolve(cfg *config.Config) (input, output string) {
	input, output = cfg.Merge.Encoding, cfg.Merge.OutputEncoding
	if f.input != "" {
		input = f.input
	}
	if f.output != "" {
		output = f.output
	}
	return input, output
}

func newMergeCommand(env *runEnv) *cobra.Command {
	var (
		outPath string
		enc     encodingFlags
	)
	cmd := &cobra.Command{
		Use:   "merge ANCESTOR TARGET OTHER -o OUT",
		Short: "Merge OTHER's changes into TARGET, stopping at the first conflict",
		Long: "Merge the changes TARGET and OTHER made to ANCESTOR, writing the result to OUT (- for stdout).\n" +
			"On a conflict, OUT holds the merge up to the conflicting region and the exit code is 1.",
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return usageErrorf("merge: -o/--output is required")
			}
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			inEnc, outEnc := enc.resolve(cfg)
			m := cfg.Merger(env.logger)

			var status textmerge.Status
			if outPath == "-" {
				status = mergeToStdout(cmd.Context(), env, m, args, inEnc, outEnc)
			} else {
				status = m.MergeFiles(cmd.Context(), outPath, outEnc, args[0], inEnc, args[1], inEnc, args[2], inEnc)
			}
			if !status.OK() {
				return ExitError{Code: 1, Err: status}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "file to write the merge to (- for stdout)")
	enc.register(cmd)
	return cmd
}

// mergeToStdout merges the files named by args into env.out.
func mergeToStdout(ctx context.Context, env *runEnv, m *textmerge.Merger, args []string, inEnc, outEnc string) textmerge.Status {
	var inputs [3]*os.File
	for i, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return textmerge.Status{Code: textmerge.CodeIOError, Message: "cannot open input", Err: err}
		}
		defer f.Close()
		inputs[i] = f
	}
	return m.Merge(ctx, env.out, outEnc, inputs[0], inEnc, inputs[1], inEnc, inputs[2], inEnc)
}

// treeFile is one file of a merge-tree run, named by its slash-separated path relative to the ancestor root.
type treeFile struct {
	rel     string
	skipped string // reason the file was not merged; "" if it was
	status  textmerge.Status
}

func newMergeTreeCommand(env *runEnv) *cobra.Command {
	var (
		ancestorDir string
		targetDir   string
		otherDir    string
		outDir      string
		jobs        int
		enc         encodingFlags
	)
	cmd := &cobra.Command{
		Use:   "merge-tree --ancestor DIR --target DIR --other DIR --out DIR",
		Short: "Merge every file of three directory trees",
		Long: "For each regular file under --ancestor that also exists under --target and --other, merge the three versions into the same path under --out.\n" +
			"Files missing from --target or --other are skipped and reported. Exits 1 if any file conflicts or fails.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, flag := range []string{"ancestor", "target", "other", "out"} {
				if v, _ := cmd.Flags().GetString(flag); v == "" {
					return usageErrorf("merge-tree: --%s is required", flag)
				}
			}
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("jobs") {
				jobs = cfg.Merge.Jobs
			}
			if jobs < 1 {
				return usageErrorf("--jobs must be >= 1")
			}
			inEnc, outEnc := enc.resolve(cfg)

			files, err := listTree(ancestorDir)
			if err != nil {
				return ExitError{Code: 1, Err: err}
			}

			m := cfg.Merger(env.logger)
			ctx := cmd.Context()
			var g errgroup.Group
			g.SetLimit(jobs)
			for _, f := range files {
				target := filepath.Join(targetDir, filepath.FromSlash(f.rel))
				other := filepath.Join(otherDir, filepath.FromSlash(f.rel))
				if !isRegular(target) {
					f.skipped = "missing from target"
					continue
				}
				if !isRegular(other) {
					f.skipped = "missing from other"
					continue
				}
				g.Go(func() error {
					out := filepath.Join(outDir, filepath.FromSlash(f.rel))
					if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
						f.status = textmerge.Status{Code: textmerge.CodeIOError, Message: "cannot create output directory", Err: err}
						return nil
					}
					ancestor := filepath.Join(ancestorDir, filepath.FromSlash(f.rel))
					f.status = m.MergeFiles(ctx, out, outEnc, ancestor, inEnc, target, inEnc, other, inEnc)
					return nil
				})
			}
			_ = g.Wait()

			return reportTree(env, files)
		},
	}
	cmd.Flags().StringVar(&ancestorDir, "ancestor", "", "directory holding the common ancestor")
	cmd.Flags().StringVar(&targetDir, "target", "", "directory holding the target version")
	cmd.Flags().StringVar(&otherDir, "other", "", "directory holding the other version")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write merged files to")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files merged concurrently (default from config)")
	enc.register(cmd)
	return cmd
}

// listTree returns the regular files under root, sorted by path.
func listTree(root string) ([]*treeFile, error) {
	var files []*treeFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, &treeFile{rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, nil
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// reportTree prints skipped files and a summary to env.out, and returns the failed merges as one error.
func reportTree(env *runEnv, files []*treeFile) error {
	var result *multierror.Error
	merged, skipped := 0, 0
	for _, f := range files {
		switch {
		case f.skipped != "":
			skipped++
			fmt.Fprintf(env.out, "skipped %s: %s\n", f.rel, f.skipped)
		case f.status.OK():
			merged++
		default:
			result = multierror.Append(result, fmt.Errorf("%s: %w", f.rel, f.status))
		}
	}
	failed := 0
	if result != nil {
		failed = len(result.Errors)
	}
	fmt.Fprintf(env.out, "merged %d, failed %d, skipped %d\n", merged, failed, skipped)
	env.logger.Info("merge-tree", "merged", merged, "failed", failed, "skipped", skipped)

	if err := result.ErrorOrNil(); err != nil {
		return ExitError{Code: 1, Err: err}
	}
	return nil
}
