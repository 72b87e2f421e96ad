package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"adinsight/adapters/dataio"
	"adinsight/adapters/llm"
	"adinsight/adapters/postgres"
	"adinsight/app"
	"adinsight/internal"
	"adinsight/internal/config"
	"adinsight/internal/httpx"
	"adinsight/internal/testkit"
	"adinsight/ports"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "adinsight",
		Short: "Advertising performance analyst: hypotheses, evidence, and creative ideas",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var configPath, dataPath, outDir string
	var noLLM, useSample bool

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Run the analysis pipeline once and write the report",
		Long: `Run the full pipeline: load the ad-set dataset, summarize performance,
generate and evaluate hypotheses, produce creative ideas, and write the
report artifacts to the output directory.

Example: adinsight run "Why did ROAS drop last week?" --data data/adsets.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := "Analyze recent advertising performance"
			if len(args) == 1 {
				query = args[0]
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dataPath != "" {
				cfg.DataPath = dataPath
			}
			if useSample {
				cfg.UseSampleData = true
			}
			if noLLM {
				cfg.OpenAI.Enabled = false
			}
			if outDir == "" {
				outDir = cfg.OutDir
			}

			orch, _, db, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			result, err := orch.Run(cmd.Context(), query, outDir)
			if err != nil {
				return err
			}

			fmt.Printf("Run %s complete: %d hypotheses, %d creative ideas\n",
				result.RunID, len(result.Hypotheses), len(result.Ideas))
			for _, h := range result.Hypotheses {
				fmt.Printf("  [%s] %.2f  %s\n", h.Verdict.Status, h.Verdict.Confidence, h.Hypothesis.Claim)
			}
			for name, path := range result.Paths {
				fmt.Printf("  %s: %s\n", name, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to the ad-set dataset (csv or xlsx)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for report artifacts")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Disable the LLM even when an API key is set")
	cmd.Flags().BoolVar(&useSample, "sample", false, "Use the synthetic sample dataset")

	return cmd
}

func newServeCmd() *cobra.Command {
	var configPath, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.HTTPPort = port
			}

			orch, repo, db, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			handler := httpx.NewRouter(orch, repo, cfg.OutDir)
			srv := &http.Server{
				Addr:              ":" + cfg.HTTPPort,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			internal.DefaultLogger.Info("listening on :%s", cfg.HTTPPort)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides config and PORT)")

	return cmd
}

func newSampleCmd() *cobra.Command {
	var rows int
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic ad-set dataset",
		Long: `Write a synthetic ad-set CSV with planted performance patterns, useful
for trying the pipeline without real campaign data.

Example: adinsight sample --rows 360 --seed 42 --out data/sample.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.DefaultConfig()
			if rows > 0 {
				gen.Rows = rows
			}
			gen.Seed = seed

			table := testkit.Generate(gen)
			if err := testkit.WriteCSV(table, out); err != nil {
				return err
			}
			fmt.Printf("Wrote %d rows to %s\n", table.Len(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 360, "Number of rows to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().StringVar(&out, "out", "data/sample.csv", "Output CSV path")

	return cmd
}

// buildPipeline assembles the orchestrator from configuration: the dataset
// reader, the optional LLM client, and the optional Postgres run store.
func buildPipeline(ctx context.Context, cfg *config.Config) (*app.Orchestrator, ports.RunRepository, interface{ Close() error }, error) {
	dataPath := cfg.DataPath
	if cfg.UseSampleData || dataPath == "" {
		dataPath = cfg.SampleDataPath
	}
	if dataPath == "" {
		return nil, nil, nil, fmt.Errorf("no dataset configured: set data_path or use --sample")
	}
	source := dataio.NewReader(dataPath)

	var completion ports.TextCompletion
	if cfg.OpenAI.Enabled {
		client, err := llm.NewClient(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxRetries:  2,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		completion = client
	}

	var repo ports.RunRepository
	var closer interface{ Close() error }
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		repo = postgres.NewRunRepository(db)
		closer = db
	}

	return app.NewOrchestrator(cfg, source, completion, repo), repo, closer, nil
}
