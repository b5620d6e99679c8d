package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jarv/justread/internal/api"
	"github.com/jarv/justread/internal/config"
	"github.com/jarv/justread/internal/database"
	"github.com/jarv/justread/internal/discovery"
	"github.com/jarv/justread/internal/feeds"
	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/library"
	"github.com/jarv/justread/internal/logging"
	"github.com/jarv/justread/internal/tasks"
	"github.com/jarv/justread/internal/ui"
	"github.com/jarv/justread/internal/version"
)

const watchDebounce = 500 * time.Millisecond

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "justread",
		Short: "A terminal home feed for your reading",
		Long: `justread shows your home feed: just added items, top picks, quick links
and a hidden section, with per-source feedback.

The local backend reads subscriptions and saved pages from a SQLite library.
The remote backend talks to a GraphQL API with a bearer token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.runTUI(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.config/justread/config.yaml)")
	flags.String("backend", config.BackendLocal, "backend to use: local or remote")
	flags.String("api-url", "", "GraphQL endpoint of the remote backend")
	flags.String("api-token", "", "bearer token for the remote backend")
	flags.String("web-url", "", "base URL top picks open at in a browser (default: origin of --api-url)")
	flags.String("db-path", "", "path to the local database")
	flags.String("subscriptions-file", "", "path to the subscriptions file")
	flags.Float64("rate-limit", 5, "remote API requests per second")
	flags.String("timeout", "15s", "remote API request timeout")
	flags.Bool("debug", false, "store debug log messages")

	rootCmd.AddCommand(newSaveCmd(&cfgFile))
	rootCmd.AddCommand(newSubscribeCmd(&cfgFile))
	rootCmd.AddCommand(newSectionsCmd(&cfgFile))
	rootCmd.AddCommand(newLogsCmd(&cfgFile))
	rootCmd.AddCommand(newDemoServerCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// app holds what every command needs: the resolved profile, the database
// (settings and logs live there for both backends) and the UI settings.
type app struct {
	profile *config.Profile
	db      *sql.DB
	queries *database.Queries
	cfg     config.Config

	feeds   *feeds.Manager
	library *library.Library
	service home.Service
}

func openApp(cmd *cobra.Command, cfgFile string) (*app, error) {
	profile, err := config.LoadProfile(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	db, queries, err := database.Open(profile.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logging.Setup(queries, profile.Debug, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig(ctx, queries)
	if err != nil {
		logging.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.GetDefaultConfig()
	}

	a := &app{profile: profile, db: db, queries: queries, cfg: cfg}
	pages := discovery.New(nil)

	switch profile.Backend {
	case config.BackendRemote:
		a.service = api.NewClient(profile.APIURL, profile.APIToken,
			api.WithRateLimit(profile.RateLimit),
			api.WithTimeout(profile.Timeout),
			api.WithPageFetcher(pages),
		)
	default:
		a.feeds = feeds.NewManager(db, queries)
		a.library = library.New(a.feeds, pages, library.WithJustAddedHours(cfg.JustAddedHours))
		a.service = a.library
	}

	logging.Info("Started", "version", version.GetVersion(), "backend", profile.Backend)
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
	}
}

// requireLocal fails commands that only make sense against the library.
func (a *app) requireLocal(command string) error {
	if a.library == nil {
		return fmt.Errorf("%s is only available with the local backend", command)
	}
	return nil
}

func (a *app) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := ui.Options{
		Service: a.service,
		Config:  a.cfg,
		WebURL:  a.profile.WebBaseURL(),
	}

	if a.library != nil {
		taskManager, err := a.startTasks(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if stopErr := taskManager.Stop(); stopErr != nil {
				logging.Debug("Task manager already stopped", "error", stopErr)
			}
		}()
		opts.Tasks = taskManager
		opts.Refresh = func() error { return a.queueRefreshAll(ctx, taskManager) }

		if a.cfg.RefreshOnStartup {
			if err := opts.Refresh(); err != nil {
				logging.Warn("Failed to queue startup refresh", "error", err)
			}
		}
	}

	p := tea.NewProgram(ui.NewModel(opts), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// startTasks starts the refresh workers, syncs the subscriptions file once
// and keeps it in sync while the TUI runs.
func (a *app) startTasks(ctx context.Context) (tasks.Manager, error) {
	path := a.profile.SubscriptionsFile
	if err := config.CreateSampleSubscriptionsFile(path); err != nil {
		logging.Warn("Failed to create sample subscriptions file", "path", path, "error", err)
	}

	taskManager := tasks.NewManager(a.cfg.RefreshConcurrency)
	if err := taskManager.RegisterHandler(tasks.NewFeedRefreshHandler(a.feeds)); err != nil {
		return nil, fmt.Errorf("failed to register feed refresh handler: %w", err)
	}
	if err := taskManager.RegisterHandler(tasks.NewSubscriptionsSyncHandler(a.feeds, path)); err != nil {
		return nil, fmt.Errorf("failed to register subscriptions sync handler: %w", err)
	}
	if err := taskManager.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start task manager: %w", err)
	}

	if err := taskManager.AddTask(tasks.CreateSubscriptionsSyncTask()); err != nil {
		logging.Warn("Failed to queue subscriptions sync", "error", err)
	}

	go func() {
		err := config.WatchFile(ctx, path, watchDebounce, func() {
			logging.Info("Subscriptions file changed", "path", path)
			if err := taskManager.AddTask(tasks.CreateSubscriptionsSyncTask()); err != nil {
				logging.Warn("Failed to queue subscriptions sync", "error", err)
			}
		})
		if err != nil {
			logging.Warn("Not watching subscriptions file", "path", path, "error", err)
		}
	}()

	return taskManager, nil
}

func (a *app) queueRefreshAll(ctx context.Context, taskManager tasks.Manager) error {
	visible, err := a.feeds.ListFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}
	for _, feed := range visible {
		if err := taskManager.AddTask(tasks.CreateFeedRefreshTask(feed.ID, feed.Url)); err != nil {
			return fmt.Errorf("failed to queue refresh for %s: %w", feed.Url, err)
		}
	}
	logging.Info("Queued refresh", "feeds", len(visible))
	return nil
}
