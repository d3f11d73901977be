package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// setting is a configuration key backed by a command-line flag.
type setting struct {
	key   string
	flag  string
	parse func(string) (any, error)
}

var rootSettings = []setting{
	{"log-level", "log-level", parseLogLevel},
	{"assembly", "assembly", oneOf("GRCh37", "GRCh38")},
}

var genesSettings = []setting{
	{"sink", "sink", oneOf(sinkJSONL, sinkTab, sinkDuckDB, sinkMongo)},
	{"output", "output", parseString},
	{"duckdb.path", "duckdb-path", parseString},
	{"duckdb.drop", "drop", parseBool},
	{"duckdb.force", "force", parseBool},
	{"mongo.uri", "mongo-uri", parseString},
	{"mongo.database", "mongo-database", parseString},
	{"mongo.collection", "mongo-collection", parseString},
	{"mongo.drop", "mongo-drop", parseBool},
	{"batch-size", "batch-size", parseNonNegative},
	{"chrom", "chrom", parseList},
	{"strip-version", "strip-version", parseBool},
	{"normalize-chrom", "normalize-chrom", parseBool},
	{"progress-interval", "progress-interval", parseInt},
}

// bindSettings binds each setting's viper key to its flag in fs.
func bindSettings(fs *pflag.FlagSet, settings []setting) {
	for _, s := range settings {
		viper.BindPFlag(s.key, fs.Lookup(s.flag))
	}
}

func lookupSetting(key string) (setting, error) {
	key = strings.ToLower(key)
	for _, group := range [][]setting{rootSettings, genesSettings} {
		for _, s := range group {
			if s.key == key {
				return s, nil
			}
		}
	}
	return setting{}, fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(settingKeys(), ", "))
}

func settingKeys() []string {
	var keys []string
	for _, group := range [][]setting{rootSettings, genesSettings} {
		for _, s := range group {
			keys = append(keys, s.key)
		}
	}
	sort.Strings(keys)
	return keys
}

func parseString(v string) (any, error) { return v, nil }

func parseBool(v string) (any, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}

func parseInt(v string) (any, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", v)
	}
	return n, nil
}

func parseNonNegative(v string) (any, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", v)
	}
	return n, nil
}

// parseList splits a comma-separated value, dropping empty items.
func parseList(v string) (any, error) {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

func parseLogLevel(v string) (any, error) {
	if _, err := zapcore.ParseLevel(v); err != nil {
		return nil, fmt.Errorf("%q is not a log level", v)
	}
	return strings.ToLower(v), nil
}

// oneOf accepts any of choices, case-insensitively, and stores the listed spelling.
func oneOf(choices ...string) func(string) (any, error) {
	return func(v string) (any, error) {
		for _, c := range choices {
			if strings.EqualFold(v, c) {
				return c, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %s", v, strings.Join(choices, ", "))
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dcc-import configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.dcc-import.yaml
and provides defaults for the matching command-line flags.`,
		Example: `  dcc-import config                                  # show effective settings
  dcc-import config set sink duckdb                  # default output sink
  dcc-import config set mongo.uri mongodb://db:27017 # default MongoDB server
  dcc-import config set chrom 1,2,X                  # import only these chromosomes
  dcc-import config get batch-size`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSetting(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupSetting(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), viper.Get(s.key))
			return nil
		},
	})

	return cmd
}

// showSettings prints the effective value of every known key as YAML.
func showSettings(out io.Writer) error {
	root := map[string]any{}
	for _, key := range settingKeys() {
		section, name, nested := strings.Cut(key, ".")
		if !nested {
			root[key] = viper.Get(key)
			continue
		}
		m, ok := root[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			root[section] = m
		}
		m[name] = viper.Get(key)
	}

	b, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if path := viper.ConfigFileUsed(); path != "" {
		fmt.Fprintf(out, "# %s\n", path)
	}
	fmt.Fprint(out, string(b))
	return nil
}

func setSetting(out io.Writer, key, value string) error {
	s, err := lookupSetting(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", s.key, err)
	}
	viper.Set(s.key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".dcc-import.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %v in %s\n", s.key, v, cfgFile)
	return nil
}
