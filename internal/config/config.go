// Package config loads rangediff's configuration from a TOML file, environment overrides, and defaults, and builds the engine values the configuration describes.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/codalotl/rangediff/internal/diff"
	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/codalotl/rangediff/internal/rangediff"
	"github.com/codalotl/rangediff/internal/textmerge"
	"github.com/codalotl/rangediff/internal/tokencmp"
)

// Config is rangediff's configuration. Field tags name the TOML keys.
type Config struct {
	Diff  DiffConfig  `toml:"diff"`
	Merge MergeConfig `toml:"merge"`
	UI    UIConfig    `toml:"ui"`
}

// DiffConfig controls comparisons.
type DiffConfig struct {
	// TooLong is the product of input lengths above which the edit search is depth-limited. A negative value disables the limit.
	TooLong int `toml:"too_long"`

	// PowLimit is the exponent of the depth limit, in (1, 2].
	PowLimit float64 `toml:"pow_limit"`

	IgnoreWhitespace bool            `toml:"ignore_whitespace"`
	ContextLines     int             `toml:"context_lines"` // Unchanged lines around each change in unified diffs.
	LineSkip         LineSkipConfig  `toml:"line_skip"`
	TokenSkip        TokenSkipConfig `toml:"token_skip"`
}

// LineSkipConfig is rangediff.SkipPolicy for line comparisons. All zero disables coarse comparison.
type LineSkipConfig struct {
	MinShorter int     `toml:"min_shorter"`
	MinLonger  int     `toml:"min_longer"`
	Tolerance  float64 `toml:"tolerance"`
}

// TokenSkipConfig is tokencmp.SkipPolicy. All zero disables coarse comparison.
type TokenSkipConfig struct {
	MinTokens      int     `toml:"min_tokens"`
	MinLongerChars int     `toml:"min_longer_chars"`
	Tolerance      float64 `toml:"tolerance"`
}

// MergeConfig controls the merge commands.
type MergeConfig struct {
	Encoding       string `toml:"encoding"`        // Encoding of merge inputs; "" means UTF-8.
	OutputEncoding string `toml:"output_encoding"` // Encoding of merge output; "" means UTF-8.
	LineSeparator  string `toml:"line_separator"`  // "\n", "\r\n", or "\r".
	Jobs           int    `toml:"jobs"`            // Concurrent merges in merge-tree.
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color string `toml:"color"` // "auto", "always", or "never".
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Diff: DiffConfig{
			TooLong:      rangediff.DefaultTooLong,
			PowLimit:     rangediff.DefaultPowLimit,
			ContextLines: 3,
			LineSkip: LineSkipConfig{
				MinShorter: rangediff.DefaultSkipPolicy.MinShorter,
				MinLonger:  rangediff.DefaultSkipPolicy.MinLonger,
				Tolerance:  rangediff.DefaultSkipPolicy.Tolerance,
			},
			TokenSkip: TokenSkipConfig{
				MinTokens:      tokencmp.DefaultSkipPolicy.MinTokens,
				MinLongerChars: tokencmp.DefaultSkipPolicy.MinLongerChars,
				Tolerance:      tokencmp.DefaultSkipPolicy.Tolerance,
			},
		},
		Merge: MergeConfig{
			LineSeparator: textmerge.DefaultLineSeparator,
			Jobs:          runtime.GOMAXPROCS(0),
		},
		UI: UIConfig{Color: "auto"},
	}
}

// DefaultPath returns ~/.rangediff/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rangediff", "config.toml"), nil
}

// Load returns the configuration: defaults, overlaid with the TOML file at path, overlaid with RANGEDIFF_* environment variables, then validated.
//
// If path is "", DefaultPath is used, and a missing file there is not an error. A missing file at an explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		path = p
	}

	cfg := Default()
	if err := cfg.LoadTOML(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML overlays the TOML file at path onto c. Keys that do not name a configuration field are an error.
func (c *Config) LoadTOML(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("load configuration %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("load configuration %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides overrides configuration values from environment variables:
//   - RANGEDIFF_TOO_LONG: diff.too_long
//   - RANGEDIFF_IGNORE_WHITESPACE: diff.ignore_whitespace ("1" or "true")
//   - RANGEDIFF_CONTEXT_LINES: diff.context_lines
//   - RANGEDIFF_ENCODING: merge.encoding
//   - RANGEDIFF_OUTPUT_ENCODING: merge.output_encoding
//   - RANGEDIFF_JOBS: merge.jobs
//   - RANGEDIFF_COLOR: ui.color
func (c *Config) ApplyEnvOverrides() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"RANGEDIFF_TOO_LONG", &c.Diff.TooLong},
		{"RANGEDIFF_CONTEXT_LINES", &c.Diff.ContextLines},
		{"RANGEDIFF_JOBS", &c.Merge.Jobs},
	}
	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid configuration: %s must be an integer (got %q)", v.name, s)
		}
		*v.dst = n
	}

	if s := os.Getenv("RANGEDIFF_IGNORE_WHITESPACE"); s != "" {
		c.Diff.IgnoreWhitespace = s == "1" || strings.EqualFold(s, "true")
	}
	if s := os.Getenv("RANGEDIFF_ENCODING"); s != "" {
		c.Merge.Encoding = s
	}
	if s := os.Getenv("RANGEDIFF_OUTPUT_ENCODING"); s != "" {
		c.Merge.OutputEncoding = s
	}
	if s := os.Getenv("RANGEDIFF_COLOR"); s != "" {
		c.UI.Color = s
	}
	return nil
}

// Validate returns an error describing every invalid value, or nil.
func (c *Config) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Diff.PowLimit <= 1 || c.Diff.PowLimit > 2 {
		addf("diff.pow_limit must be in (1, 2] (got %v)", c.Diff.PowLimit)
	}
	if c.Diff.ContextLines < 0 {
		addf("diff.context_lines must be >= 0 (got %d)", c.Diff.ContextLines)
	}
	if c.Diff.LineSkip.MinShorter < 0 || c.Diff.LineSkip.MinLonger < 0 {
		addf("diff.line_skip sizes must be >= 0")
	}
	if t := c.Diff.LineSkip.Tolerance; t < 0 || t >= 1 {
		addf("diff.line_skip.tolerance must be in [0, 1) (got %v)", t)
	}
	if c.Diff.TokenSkip.MinTokens < 0 || c.Diff.TokenSkip.MinLongerChars < 0 {
		addf("diff.token_skip sizes must be >= 0")
	}
	if t := c.Diff.TokenSkip.Tolerance; t < 0 || t >= 1 {
		addf("diff.token_skip.tolerance must be in [0, 1) (got %v)", t)
	}

	for _, enc := range []struct{ key, name string }{{"merge.encoding", c.Merge.Encoding}, {"merge.output_encoding", c.Merge.OutputEncoding}} {
		if _, err := textmerge.LookupEncoding(enc.name); err != nil {
			addf("%s: %v", enc.key, err)
		}
	}
	switch c.Merge.LineSeparator {
	case "\n", "\r\n", "\r":
	default:
		addf("merge.line_separator must be \"\\n\", \"\\r\\n\", or \"\\r\" (got %q)", c.Merge.LineSeparator)
	}
	if c.Merge.Jobs < 1 {
		addf("merge.jobs must be > 0 (got %d)", c.Merge.Jobs)
	}

	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		addf("ui.color must be auto, always, or never (got %q)", c.UI.Color)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// WriteTOML writes c as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Differencer returns the comparison limits, logging coarse comparisons to logger (which may be nil).
func (c *Config) Differencer(logger *slog.Logger) rangediff.Differencer {
	return rangediff.Differencer{TooLong: c.Diff.TooLong, PowLimit: c.Diff.PowLimit, Logger: logger}
}

// LineSkipPolicy returns the skip policy for line comparisons.
func (c *Config) LineSkipPolicy() rangediff.SkipPolicy {
	s := c.Diff.LineSkip
	return rangediff.SkipPolicy{MinShorter: s.MinShorter, MinLonger: s.MinLonger, Tolerance: s.Tolerance}
}

// TokenSkipPolicy returns the skip policy for token comparisons.
func (c *Config) TokenSkipPolicy() tokencmp.SkipPolicy {
	s := c.Diff.TokenSkip
	return tokencmp.SkipPolicy{MinTokens: s.MinTokens, MinLongerChars: s.MinLongerChars, Tolerance: s.Tolerance}
}

// LineOptions returns the line comparison options used by merges.
func (c *Config) LineOptions() *linecmp.Options {
	return &linecmp.Options{IgnoreWhitespace: c.Diff.IgnoreWhitespace, Skip: c.LineSkipPolicy()}
}

// DiffOptions returns the options for diff.DiffTextOptions and diff.Merge3Text.
func (c *Config) DiffOptions(logger *slog.Logger) diff.Options {
	return diff.Options{
		IgnoreWhitespace: c.Diff.IgnoreWhitespace,
		LineSkip:         c.LineSkipPolicy(),
		TokenSkip:        c.TokenSkipPolicy(),
		Differencer:      c.Differencer(logger),
	}
}

// Merger returns a stream merger configured by c.
func (c *Config) Merger(logger *slog.Logger) *textmerge.Merger {
	return &textmerge.Merger{
		LineSeparator: c.Merge.LineSeparator,
		Options:       c.LineOptions(),
		Differencer:   c.Differencer(logger),
		Logger:        logger,
	}
}
