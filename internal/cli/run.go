package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	otellog "go.opentelemetry.io/otel/log"

	"github.com/fyrsmithlabs/ctxlab/internal/config"
	"github.com/fyrsmithlabs/ctxlab/internal/logging"
	"github.com/fyrsmithlabs/ctxlab/internal/orchestrator"
	"github.com/fyrsmithlabs/ctxlab/internal/telemetry"
	"github.com/fyrsmithlabs/ctxlab/internal/workspace"
	"github.com/fyrsmithlabs/ctxlab/pkg/git"
)

// defaultQuery is used when --query is omitted or empty.
const defaultQuery = "infra"

func newRunCmd() *cobra.Command {
	var (
		query  string
		out    string
		public bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Snapshot the environment, restore context, and run the baseline gates",
		Long: `Run the full lab sequence: snapshot the workspace environment, scan local
memory databases for rows matching the query, then run the baseline gates
(validate, test, and smoke when applicable). Artifacts land under the output
directory; exit status is 1 when any gate fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLab(cmd, query, out, public)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", fmt.Sprintf("context restore query (default %q)", defaultQuery))
	cmd.Flags().StringVar(&out, "out", "", "output directory (default <root>/lab/init_runs/<timestamp>)")
	cmd.Flags().BoolVar(&public, "public", false, "public mode: always run the smoke gate")

	return cmd
}

func runLab(cmd *cobra.Command, query, out string, public bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	root, err := git.FindRoot(cwd)
	if err != nil {
		root = cwd
	}

	// Best-effort .env preload; a missing file is fine.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = filepath.Join(root, ".ctxlab.yaml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyLoggingFlags(cmd, cfg)

	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.Endpoint = cfg.Telemetry.Endpoint
	telCfg.Protocol = cfg.Telemetry.Protocol
	telCfg.Insecure = cfg.Telemetry.Insecure
	telCfg.ServiceVersion = version
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = tel.Shutdown(ctx)
	}()

	logger, err := newLogger(cfg, tel.LoggerProvider())
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if query == "" {
		query = defaultQuery
	}
	outDir := workspace.ResolveOutDir(root, out, cfg.Paths.OutBase, time.Now())
	runID := uuid.NewString()
	info := git.Describe(root)

	orch := orchestrator.New(root, cfg, logger, tel, runID, info)
	_, err = orch.Run(ctx, orchestrator.RunRequest{
		Query:  query,
		OutDir: outDir,
		Public: public,
	})
	return err
}

// applyLoggingFlags lets --log-level/--log-format override the config file.
func applyLoggingFlags(cmd *cobra.Command, cfg *config.Config) {
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
}

func newLogger(cfg *config.Config, otelProvider otellog.LoggerProvider) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logCfg.Output.OTEL = otelProvider != nil
	return logging.NewLogger(logCfg, otelProvider)
}
