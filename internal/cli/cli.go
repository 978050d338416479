package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/codalotl/rangediff/internal/config"
	"github.com/codalotl/rangediff/internal/simplelogger"
	"github.com/spf13/cobra"
)

// Version is the rangediff version. It is a var (not a const) so build tooling can override it (for example via `-ldflags "-X .../internal/cli.Version=1.2.3"`).
var Version = "0.3.0"

// In/Out/Err override standard I/O. If nil, defaults are used. Overriding is useful for testing.
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run runs the CLI with args (typically you'd use os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil, but the structure of args is sound (flags are correct, etc). Commands that compare also exit 1 when the inputs differ or conflict.
//   - 2 -> err != nil, args parse error or misuse of flags, etc.
//
// Note that in cases of errors, Run has already displayed an error message to opts.Err || Stderr. Callers may use os.Exit with the exit code.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	var errW io.Writer = os.Stderr
	if opts != nil {
		if opts.In != nil {
			in = opts.In
		}
		if opts.Out != nil {
			out = opts.Out
		}
		if opts.Err != nil {
			errW = opts.Err
		}
	}

	simplelogger.Log("rangediff %q", argv)

	env := &runEnv{
		in:     in,
		out:    out,
		err:    errW,
		logger: simplelogger.New(slog.LevelDebug),
	}
	root := newRootCommand(env)
	root.SetArgs(argv)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errW)

	start := time.Now()
	err := root.ExecuteContext(context.Background())
	code := exitCodeFor(err)
	env.logger.Info("run", "args", argv, "exit", code, "elapsed", time.Since(start))

	if err == nil {
		return 0, nil
	}
	if !isSilent(err) {
		fmt.Fprintf(errW, "error: %v\n", err)
	}
	return code, err
}

// runEnv is shared by every command of one Run.
type runEnv struct {
	in     io.Reader
	out    io.Writer
	err    io.Writer
	logger *slog.Logger

	configPath string
	cfgOnce    sync.Once
	cfg        *config.Config
	cfgErr     error
}

// config loads the configuration on first use.
func (e *runEnv) config() (*config.Config, error) {
	e.cfgOnce.Do(func() {
		e.cfg, e.cfgErr = config.Load(e.configPath)
		if e.cfgErr != nil {
			e.logger.Error("load configuration", "path", e.configPath, "err", e.cfgErr)
		}
	})
	return e.cfg, e.cfgErr
}

func newRootCommand(env *runEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "rangediff [command]",
		Short:         "Compare and merge texts by line and token ranges",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env.configPath, "config", "", "path to a TOML configuration file (default ~/.rangediff/config.toml)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return UsageError{Message: err.Error()}
	})

	root.AddCommand(
		newDiffCommand(env),
		newDiff3Command(env),
		newMergeCommand(env),
		newMergeTreeCommand(env),
		newTokensCommand(env),
		newConfigCommand(env),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a UsageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s: expected %d argument(s), got %d\nusage: %s", cmd.Name(), n, len(args), cmd.UseLine())
		}
		return nil
	}
}

// loadConfig returns the configuration, wrapping a failure as exit code 1.
func loadConfig(env *runEnv) (*config.Config, error) {
	cfg, err := env.config()
	if err != nil {
		return nil, ExitError{Code: 1, Err: err}
	}
	return cfg, nil
}
