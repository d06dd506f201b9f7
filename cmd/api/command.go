package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mandalnilabja/openai-relay/internal/config"
	"github.com/mandalnilabja/openai-relay/internal/version"
)

const defaultEnvFile = ".env"

// flags holds command-line overrides. Only flags the user set are applied.
type flags struct {
	configPath   string
	envFile      string
	port         string
	logLevel     string
	requestLogDB string
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config.toml (default ~/.openai-relay/config.toml)")
	fs.StringVar(&f.envFile, "env-file", defaultEnvFile, "dotenv file loaded into the environment before configuration")
	fs.StringVarP(&f.port, "port", "p", "", "listen port or address, overrides PORT")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error, overrides LOG_LEVEL")
	fs.StringVar(&f.requestLogDB, "request-log-db", "", "request journal path or :memory:, overrides REQUEST_LOG_DB")
}

// apply copies the flags the user set onto cfg.
func (f *flags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("port") {
		cfg.ServerPort = config.NormalizePort(f.port)
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("request-log-db") {
		cfg.RequestLogDB = config.ExpandHome(f.requestLogDB)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "openai-relay",
		Short:         "Reverse proxy that injects an OpenAI credential into chat and assistants calls",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	f.register(cmd.Flags())

	cmd.AddCommand(newInitConfigCommand())
	return cmd
}

// loadConfig applies the precedence flag > env (.env included) > file > default.
func loadConfig(fs *pflag.FlagSet, f *flags) (*config.Config, error) {
	if err := loadEnvFile(f.envFile, fs.Changed("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(fs, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing default file is not an error; a missing explicit one is.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a commented config.toml template if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.EnsureConfigFile(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
			return nil
		},
	}
}
