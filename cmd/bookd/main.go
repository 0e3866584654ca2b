package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/internal/httpapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagDatabaseURL     = "database-url"
	flagExposureLimit   = "exposure-limit"
	flagListenAddr      = "listen-addr"
	flagAllowedOrigins  = "allowed-origins"
	flagJWTSigningKey   = "jwt-signing-key"
	flagJWTIssuer       = "jwt-issuer"
	flagShutdownTimeout = "shutdown-timeout"
	flagMatch           = "match"
	flagFormat          = "format"
	flagOut             = "out"
	flagSide            = "side"
	envPrefix           = "BOOKD"
	defaultDatabaseURL  = "sqlite:///tmp/bookledger.db"
	stdoutPath          = "-"
)

type runtimeConfig struct {
	DatabaseURL   string
	ExposureLimit *float64
	HTTP          httpapi.Config
}

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bookd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "bookd",
		Short:         "Bookmaker exposure ledger and settlement engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(flagDatabaseURL, defaultDatabaseURL, "database URL (postgres://... or sqlite://path)")
	cmd.PersistentFlags().Float64(flagExposureLimit, 0, "exposure limit reported by match summaries (unset when omitted)")

	cmd.AddCommand(
		newServeCommand(cfg),
		newImportCommand(cfg),
		newExportCommand(cfg),
		newSettleCommand(cfg),
		newSummaryCommand(cfg),
	)
	return cmd
}

func newServeCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :8080)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "HS256 key for bearer tokens; empty disables auth")
	cmd.Flags().String(flagJWTIssuer, "", "expected bearer token issuer")
	cmd.Flags().Duration(flagShutdownTimeout, 0, "graceful shutdown timeout (default 5s)")
	return cmd
}

// loadConfig resolves flags and BOOKD_* environment variables into cfg.
func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagDatabaseURL, flagExposureLimit, flagListenAddr, flagAllowedOrigins, flagJWTSigningKey, flagJWTIssuer, flagShutdownTimeout} {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(flagName, flag); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.ExposureLimit = nil
	if v.IsSet(flagExposureLimit) {
		limit := v.GetFloat64(flagExposureLimit)
		if limit < 0 {
			return fmt.Errorf("%s must not be negative", flagExposureLimit)
		}
		cfg.ExposureLimit = &limit
	}
	cfg.HTTP = httpapi.Config{
		ListenAddr:      strings.TrimSpace(v.GetString(flagListenAddr)),
		AllowedOrigins:  httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins)),
		AuthSigningKey:  v.GetString(flagJWTSigningKey),
		AuthIssuer:      strings.TrimSpace(v.GetString(flagJWTIssuer)),
		ShutdownTimeout: v.GetDuration(flagShutdownTimeout),
	}
	return cfg.HTTP.Validate()
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	service, cleanup, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	return httpapi.Run(ctx, cfg.HTTP, service, logger)
}

func clock() time.Time {
	return time.Now().UTC()
}
