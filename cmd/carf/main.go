package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"carf/cmd/carf/cockpit"
	"carf/internal/api"
	"carf/internal/config"
	"carf/internal/export"
	"carf/internal/format"
	"carf/internal/history"
	"carf/internal/logging"
	"carf/internal/mockapi"
)

const version = "0.3.0"

var (
	// Global flags
	configPath string
	apiURL     string
	demoMode   bool

	logger *zap.Logger
)

// rootCmd launches the interactive cockpit.
var rootCmd = &cobra.Command{
	Use:   "carf",
	Short: "carf - terminal cockpit for the reasoning backend",
	Long: `carf is a terminal cockpit for a Cynefin-routing reasoning backend.

It submits analysis queries, then visualizes the classified domain, the
causal-inference estimate, the Bayesian belief state, and the Guardian
policy decision in live panels. Three views (analyst, developer,
executive) slice the same response for different audiences.

Run without arguments to start the interactive cockpit. Pass --demo to
launch against a built-in demo backend with canned scenarios.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// The cockpit owns the terminal, so interactive runs log to the
		// dated file under the state dir. One-shot subcommands log to
		// stderr like any CLI.
		switch cmd.Name() {
		case "carf", "demo":
			if err := logging.Initialize(cfg.State.Dir, cfg.Logging.Debug); err != nil {
				return fmt.Errorf("initializing logging: %w", err)
			}
			logger = logging.Get(logging.CategoryCockpit)
		default:
			zcfg := zap.NewProductionConfig()
			if cfg.Logging.Debug {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCockpit()
	},
}

// queryCmd submits one query and prints the result summary.
var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Submit a single query and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

// statusCmd checks backend reachability.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend health",
	RunE:  runStatus,
}

// historyCmd lists persisted analysis sessions.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis sessions",
	RunE:  runHistory,
}

// exportCmd writes the debug bundle for a recorded session.
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export the debug bundle for a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

// demoCmd runs the cockpit against the embedded demo backend.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the cockpit against a built-in demo backend",
	Long: `Starts an in-process backend with canned scenarios (discount churn,
supply disruption, incident response) and launches the cockpit against it.
No external services are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		demoMode = true
		return runCockpit()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the carf version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("carf %s\n", version)
	},
}

var (
	queryScenario string
	historyLimit  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.carf/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "backend base URL (overrides config)")
	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "run against a built-in demo backend")

	queryCmd.Flags().StringVar(&queryScenario, "scenario", "discount-churn", "scenario id for the query")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum sessions to list")

	rootCmd.AddCommand(queryCmd, statusCmd, historyCmd, exportCmd, demoCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	return cfg, nil
}

func runCockpit() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if demoMode {
		demo, err := mockapi.New("127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("starting demo backend: %w", err)
		}
		demo.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = demo.Shutdown(ctx)
		}()
		cfg.API.BaseURL = demo.Addr()
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	recorder, err := history.Open(cfg.State.DBPath)
	if err != nil {
		// The cockpit runs without persistence; history features degrade.
		logger.Warn("opening history store failed", zap.Error(err))
		recorder = nil
	}

	watchPath := configPath
	if watchPath == "" {
		watchPath = config.DefaultPath()
	}
	watcher, err := config.Watch(watchPath)
	if err != nil {
		logger.Warn("config hot reload unavailable", zap.Error(err))
		watcher = nil
	}

	var model cockpit.Model
	if recorder != nil {
		model = cockpit.New(cfg, client, recorder, watcher)
	} else {
		model = cockpit.New(cfg, client, nil, watcher)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("running cockpit: %w", err)
	}
	if m, ok := final.(cockpit.Model); ok {
		m.Shutdown()
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
	defer cancel()

	resp, err := client.SubmitQuery(ctx, strings.Join(args, " "), queryScenario)
	if err != nil {
		return err
	}

	fmt.Printf("session:    %s\n", resp.SessionID)
	fmt.Printf("domain:     %s (%s confidence, entropy %.2f)\n",
		resp.Domain, format.SafePercentage(resp.DomainConfidence), resp.DomainEntropy)
	if resp.Causal != nil {
		c := resp.Causal
		fmt.Printf("causal:     %s -> %s effect %s %s (p=%.3f, refutations %s)\n",
			c.Treatment, c.Outcome, format.FormatEffect(c.Effect), c.Unit,
			c.PValue, format.Robustness(c.RefutationsPassed, c.RefutationsTotal))
	}
	if resp.Guardian != nil {
		fmt.Printf("guardian:   %s (human approval: %v)\n",
			resp.Guardian.OverallStatus, resp.Guardian.RequiresHumanApproval)
	}
	fmt.Printf("\n%s\n", resp.Response)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("backend %s unreachable: %w", cfg.API.BaseURL, err)
	}
	fmt.Printf("backend %s healthy (%dms)\n", cfg.API.BaseURL, time.Since(start).Milliseconds())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	sessions, err := store.List(historyLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no recorded sessions")
		return nil
	}
	for _, s := range sessions {
		domain := "disorder"
		if s.Response != nil {
			domain = string(s.Response.Domain)
		}
		fmt.Printf("%s  %s  %-11s  %s\n",
			s.ID, s.Timestamp.Format("2006-01-02 15:04"), domain, s.Query)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	session, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("loading session %s: %w", args[0], err)
	}

	path, err := export.WriteDebug("", session.Response, export.DeveloperState{
		Scenario:   session.Scenario,
		APIBaseURL: cfg.API.BaseURL,
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
