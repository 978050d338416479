package cli

import (
	"fmt"

	"github.com/codalotl/rangediff/internal/tokencmp"
	"github.com/spf13/cobra"
)

func newTokensCommand(env *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens LINE",
		Short: "Print the tokens of LINE, one per line: byte offset, category, and quoted text",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := tokencmp.New(args[0])
			for i, tok := range c.Tokens() {
				fmt.Fprintf(env.out, "%d\t%s\t%q\n", tok.Start, tok.Category, c.TokenText(i))
			}
			return nil
		},
	}
}

func newConfigCommand(env *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			if err := cfg.WriteTOML(env.out); err != nil {
				return ExitError{Code: 1, Err: err}
			}
			return nil
		},
	}
}
