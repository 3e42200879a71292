package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagesmith/pagesmith/internal/model"
	"github.com/pagesmith/pagesmith/internal/pagestore"
	"github.com/pagesmith/pagesmith/internal/server"
	"github.com/pagesmith/pagesmith/internal/store"
	"github.com/pagesmith/pagesmith/internal/telemetry"
)

const banner = `
 ___  _   ___ ___ ___ __  __ ___ _____ _  _
| _ \/ \ / __| __/ __|  \/  |_ _|_   _| || |
|  _/ _ \ (_ | _|\__ \ |\/| || |  | | | __ |
|_|/_/ \_\___|___|___/_|  |_|___| |_| |_||_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Pagesmith API server",
		Long:  "Start the HTTP server that exposes the authenticated page-creation API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "path", resolveDataDir())

	settings, err := st.LoadSettings(context.Background())
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	pages := pagestore.NewLocal(st, settings.BaseURL)

	cfg := server.Config{
		Host:                  host,
		Port:                  port,
		ShutdownTimeout:       30 * time.Second,
		CORSOrigins:           []string{"*"},
		EdgeRequestsPerMinute: viper.GetInt("server.edge_requests_per_minute"),
	}
	if cfg.EdgeRequestsPerMinute == 0 {
		cfg.EdgeRequestsPerMinute = server.DefaultConfig().EdgeRequestsPerMinute
	}

	srv := server.New(cfg, st, pages, logger)

	tracker := telemetry.New(context.Background(), st, telemetryProps(st))
	if tracker != nil {
		telemetry.PrintNotice()
		tracker.Start()
		defer tracker.Shutdown()
	}

	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", host, port)
	if !settings.APIEnabled {
		fmt.Println("→ API access is currently disabled (pagesmith settings set api_enabled true)")
	}
	fmt.Println()

	return srv.ListenAndServe()
}

// telemetryProps gathers the anonymous heartbeat counts. Store failures
// report zero counts rather than blocking the heartbeat.
func telemetryProps(st *store.Store) telemetry.PropertiesFunc {
	return func() telemetry.Properties {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		props := telemetry.Properties{
			Version:   buildVersion,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
		}
		if keys, err := st.ListAPIKeys(ctx); err == nil {
			props.APIKeys = len(keys)
			for _, k := range keys {
				if k.Status == model.KeyStatusActive {
					props.ActiveKeys++
				}
			}
		}
		if count, err := st.CountCreatedPages(ctx); err == nil {
			props.PagesCreated = count
		}
		if settings, err := st.LoadSettings(ctx); err == nil {
			props.WebhookSet = settings.WebhookURL != ""
			props.TokenAuthEnabled = settings.TokenAuthEnabled
		}
		return props
	}
}
