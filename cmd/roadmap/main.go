package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/roadmap/internal/board"
	"github.com/robby/roadmap/internal/cdn"
	"github.com/robby/roadmap/internal/config"
	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/gh"
	"github.com/robby/roadmap/internal/locale"
	"github.com/robby/roadmap/internal/platform"
	"github.com/robby/roadmap/internal/store"
	roadmapsync "github.com/robby/roadmap/internal/sync"
	"github.com/robby/roadmap/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// CLI flags
	configFlag   string
	endpointFlag string
	intervalFlag string
	onceFlag     bool

	// GitHub origin flags (bypass the CDN feed)
	ownerFlag   string
	repoFlag    string
	projectFlag int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Terminal roadmap board kept in sync with a published feed",
		Long: `roadmap renders a four-column product roadmap (ideas, planned,
in progress, shipped) and keeps it in sync with a published feed.

By default items come from a CDN feed (meta.json probe + roadmap.json
payload). With --owner and --project the board syncs straight from a
GitHub Projects v2 board instead, authenticated via 'gh auth login' or
the ROADMAP_GITHUB_TOKEN / GITHUB_TOKEN environment variables.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default: $HOME/.config/roadmap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Feed base URL. Overrides feed.base_url.")
	rootCmd.PersistentFlags().StringVar(&intervalFlag, "interval", "", "Polling cadence, e.g. 30s or 5m. Overrides sync.interval.")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "GitHub owner login. Switches to the GitHub Projects origin.")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "GitHub repository name (informational, shown in the snapshot source).")
	rootCmd.PersistentFlags().IntVar(&projectFlag, "project", 0, "GitHub project number. Requires --owner.")
	rootCmd.Flags().BoolVar(&onceFlag, "once", false, "Sync once and print the board to stdout instead of starting the TUI.")

	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// syncCmd runs the headless refresh loop: no TUI, just log lines. Useful for
// debugging feeds and as a host-process sidecar.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run the headless sync loop, logging each cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			prober, fetcher, err := buildOrigin(cfg)
			if err != nil {
				return err
			}

			logger := log.New(os.Stderr, "", log.LstdFlags)
			st := store.New()
			syncer := roadmapsync.New(prober, fetcher, st, logger)

			opts := roadmapsync.Options{Interval: cfg.SyncInterval()}
			if cfg.Sync.PushEnabled {
				opts.Notifier = platform.NewBus()
			}

			err = syncer.Run(cmd.Context(), opts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.Features.RoadmapEnabled {
		return fmt.Errorf("the roadmap feature is disabled (features.roadmap_enabled)")
	}

	prober, fetcher, err := buildOrigin(cfg)
	if err != nil {
		return err
	}

	st := store.New()
	tr := locale.ForLanguage(cfg.UI.Language)
	ctx := context.Background()

	if onceFlag {
		return syncAndDump(ctx, prober, fetcher, st, tr)
	}

	var notifier platform.Notifier
	if cfg.Sync.PushEnabled {
		notifier = platform.NewBus()
	}

	syncer := roadmapsync.New(prober, fetcher, st, nil)
	app := tui.NewAppModel(st, syncer, tr, cfg.SyncInterval(), notifier, ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

// loadConfig wires viper: config file, ROADMAP_* environment overrides, then
// explicit flag overrides on top.
func loadConfig() (*config.Config, error) {
	viper.SetDefault("features.roadmap_enabled", true)

	if configFlag != "" {
		viper.SetConfigFile(configFlag)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/roadmap")
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("ROADMAP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; flags and env can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFlag != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if endpointFlag != "" {
		viper.Set("feed.base_url", endpointFlag)
	}
	if intervalFlag != "" {
		viper.Set("sync.interval", intervalFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOrigin picks the snapshot source: the GitHub Projects origin when
// --owner is set, otherwise the CDN feed client.
func buildOrigin(cfg *config.Config) (roadmapsync.Prober, roadmapsync.Fetcher, error) {
	if ownerFlag != "" {
		if projectFlag <= 0 {
			return nil, nil, fmt.Errorf("--owner requires --project")
		}

		client, err := gh.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}

		source := domain.Source{Owner: ownerFlag, Repo: repoFlag, ProjectNumber: projectFlag}
		origin := gh.NewOrigin(client, source, log.New(os.Stderr, "", log.LstdFlags))
		return origin, origin, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	client := cdn.New(cfg.Feed.BaseURL, cfg.FeedTimeout(), nil)
	return client, client, nil
}

// syncAndDump runs one cycle and prints the projected board as plain text.
func syncAndDump(ctx context.Context, prober roadmapsync.Prober, fetcher roadmapsync.Fetcher, st *store.Store, tr locale.Translator) error {
	syncer := roadmapsync.New(prober, fetcher, st, log.New(os.Stderr, "", log.LstdFlags))

	res, err := syncer.SyncOnce(ctx)
	if err != nil {
		return err
	}

	set, version := st.Current()
	fmt.Printf("Synced %d items (fingerprint %s, generated %s)\n\n",
		res.Items, version.Fingerprint, version.GeneratedAt.Format(time.RFC3339))

	for _, col := range board.Project(set, tr, board.SortVotes) {
		fmt.Printf("%s (%d) - %s\n", col.Label, len(col.Items), col.Subtitle)
		for _, item := range col.Items {
			line := fmt.Sprintf("  [%4d] %s", item.VoteScore(), item.DisplayTitle())
			if item.ShippedAt != nil {
				line += fmt.Sprintf(" (shipped %s)", item.ShippedAt)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	return nil
}
