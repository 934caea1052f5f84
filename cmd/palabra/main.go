package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/fundacionmisionvida7/Pagina/internal/cmd/client"
	serverrun "github.com/fundacionmisionvida7/Pagina/internal/cmd/server"
	cfgpkg "github.com/fundacionmisionvida7/Pagina/internal/config"
	"github.com/fundacionmisionvida7/Pagina/internal/push"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// initialize logger for CLI
	// Respect PALABRA_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("PALABRA_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:           "palabra",
		Short:         "Palabra del Día push service",
		Long:          "Palabra stores Web Push subscriptions and delivers the daily devotional to them. This CLI runs the server and operates a running one.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServerCommand())
	rootCmd.AddCommand(newDevotionalCommand(logger))
	rootCmd.AddCommand(newVAPIDCommand())
	clientcmd.AddCommands(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

// newServerCommand constructs `server start`.
func newServerCommand() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the push server (HTTP and gRPC)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mode, err := pebblestore.ParseFsyncMode(cfg.Store.Fsync)
			if err != nil {
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  cfg.DataDir,
				GRPCAddr: cfg.GRPCAddr,
				HTTPAddr: cfg.HTTPAddr,
				Fsync:    mode,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("PALABRA_CONFIG"), "Config file (JSON or YAML)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("http", "", "HTTP listen address (default :3000)")
	f.String("grpc", "", "gRPC listen address (default :50051)")
	f.String("store", "", "Subscriber store backend: pebble|sqlite")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json (default text)")
	f.String("daily-at", "", "Send the daily devotional at HH:MM (empty disables the schedule)")
	f.String("timezone", "", "Time zone for --daily-at (IANA name)")
	serverCmd.AddCommand(serverStartCmd)
	return serverCmd
}

// loadConfig layers the config file, PALABRA_* env and explicit flags.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	overlay := map[string]*string{
		"data-dir":   &cfg.DataDir,
		"http":       &cfg.HTTPAddr,
		"grpc":       &cfg.GRPCAddr,
		"store":      &cfg.Store.Backend,
		"fsync":      &cfg.Store.Fsync,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
		"daily-at":   &cfg.Schedule.DailyAt,
		"timezone":   &cfg.Schedule.Timezone,
	}
	for name, dst := range overlay {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	return cfg, cfg.Validate()
}

// newDevotionalCommand scrapes the devotional locally, without a server.
func newDevotionalCommand(logger logpkg.Logger) *cobra.Command {
	devCmd := &cobra.Command{
		Use:   "devotional",
		Short: "Fetch today's devotional from the source page and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if u, _ := cmd.Flags().GetString("source"); u != "" {
				cfg.Devotional.SourceURL = u
			}
			d, err := serverrun.NewProvider(cfg, logger).Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), clientcmd.RenderDevotional(d))
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
	devCmd.Flags().String("config", os.Getenv("PALABRA_CONFIG"), "Config file (JSON or YAML)")
	devCmd.Flags().String("source", "", "Override the devotional source URL")
	devCmd.Flags().Bool("pretty", false, "Render for the terminal instead of JSON")
	return devCmd
}

// newVAPIDCommand constructs `vapid generate`.
func newVAPIDCommand() *cobra.Command {
	vapidCmd := &cobra.Command{Use: "vapid", Short: "VAPID key helpers"}
	vapidCmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a VAPID key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := push.GenerateKeys()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "PALABRA_VAPID_PUBLIC_KEY=%s\nPALABRA_VAPID_PRIVATE_KEY=%s\n", keys.PublicKey, keys.PrivateKey)
			return nil
		},
	})
	return vapidCmd
}

func apiURL() string {
	if v := os.Getenv("PALABRA_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:3000"
}
