package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"webfetch/application/loader"
	"webfetch/application/util/domain"
	"webfetch/config"
	"webfetch/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "webfetch: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "webfetch [url]",
		Short: "Fetch a url and print it as text",
		Long: `Fetch an http, https, file or data url and print its content.
HTML tags are stripped unless the url is prefixed with "view-source:".
Without a url the configured default file is shown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return errors.Wrap(err, "loading config")
			}

			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = f.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = config.Format(f.logFormat)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			raw, err := target(cfg, args)
			if err != nil {
				return err
			}

			l := loader.New(
				tcp.NewDialer(),
				domain.NewResolverLookuper(nil),
				config.NewLogger(cfg.Log, stderr),
				clock.New(),
				cfg.ClientOptions(),
			)
			defer l.Close()

			content, err := l.Load(cmd.Context(), raw)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(stdout, content)
			return err
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", string(config.FormatText), "log format (text, json)")

	return cmd
}

func target(cfg *config.Config, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	path, err := filepath.Abs(cfg.DefaultFile)
	if err != nil {
		return "", errors.Wrap(err, "resolving default file")
	}
	return "file://" + path, nil
}
