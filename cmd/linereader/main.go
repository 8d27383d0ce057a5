package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Build variables - set by ldflags during build
var (
	version = "dev"
	commit  = "unknown"
)

// Config struct for command configuration
type Config struct {
	Separator      string `mapstructure:"separator"`
	Encoding       string `mapstructure:"encoding"`
	ReplaceInvalid bool   `mapstructure:"replace-invalid"`
	File           string `mapstructure:"file"`
	Follow         bool   `mapstructure:"follow"`
	Device         string `mapstructure:"device"`
	Baud           int    `mapstructure:"baud"`
	ChunkSize      int    `mapstructure:"chunk-size"`
	Verbose        bool   `mapstructure:"verbose"`
}

var (
	cfg     Config
	cfgFile string
	logger  = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "linereader",
		Short: "Read delimiter-separated lines from stdin, files or serial ports",
		Example: `  # Print lines from stdin
  printf 'a\nb\n' | linereader cat

  # Follow a log file with CRLF line endings
  linereader cat -f /var/log/device.log --follow --separator '\r\n'

  # Read a UTF-16 file
  linereader cat -f export.txt --encoding utf-16le

  # Read from a serial device
  linereader cat --device /dev/ttyUSB0 --baud 115200 --separator '\r\n'

  # Sum numbers entered line by line, an empty line ends the input
  linereader sum`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("linereader %s (%s)\n", version, commit)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/linereader/config.yml)")
	addConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(catCmd, sumCmd, versionCmd)
}

// addConfigFlags defines the flags that map onto Config.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringP("separator", "s", `\n`, "line separator, Go escape sequences are allowed")
	flags.StringP("encoding", "e", "utf-8", "encoding of the input bytes")
	flags.Bool("replace-invalid", false, "replace invalid UTF-8 with U+FFFD instead of failing")
	flags.StringP("file", "f", "", "read from this file instead of stdin")
	flags.Bool("follow", false, "keep reading appended data like 'tail -f'")
	flags.String("device", "", "read from this serial device instead of stdin")
	flags.Int("baud", 115200, "serial baud rate")
	flags.Int("chunk-size", 4096, "read size in bytes")
	flags.BoolP("verbose", "v", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	v := viper.New()
	c, err := loadConfig(v, cmd.Flags(), cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	l, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	logger = l
	if path := v.ConfigFileUsed(); path != "" {
		logger.Debug("using config file", zap.String("path", path))
	}
	return nil
}

// loadConfig merges flags, LINEREADER_* environment variables and the
// config file, in that order of precedence. Only a missing default config
// file is tolerated.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet, path string) (Config, error) {
	var c Config
	if err := v.BindPFlags(flags); err != nil {
		return c, fmt.Errorf("bind flags: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "linereader"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LINEREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	return zcfg.Build()
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
