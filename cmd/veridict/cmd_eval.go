package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veridict/veridict/internal/config"
	"github.com/veridict/veridict/internal/dataset"
	"github.com/veridict/veridict/internal/domain"
	"github.com/veridict/veridict/internal/embedding"
	"github.com/veridict/veridict/internal/metrics"
	"github.com/veridict/veridict/internal/policy"
	"github.com/veridict/veridict/internal/report"
	"github.com/veridict/veridict/internal/store"
)

var (
	evalDocs     string
	evalDialogs  string
	evalOutDir   string
	evalPolicies []string
	evalManifest string
	evalStore    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the policy evaluation over a docs/dialogs dataset",
	Long: "Joins a document CSV with a dialogue JSONL file into conflict records,\n" +
		"scores each record under the selected policies, and writes predictions\n" +
		"and per-scenario summaries into a timestamped run directory.",
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalDocs, "docs", "", "Path to documents CSV")
	evalCmd.Flags().StringVar(&evalDialogs, "dialogs", "", "Path to dialogues JSONL")
	evalCmd.Flags().StringVar(&evalOutDir, "outdir", "", "Base directory for run artifacts (default RESULTS_DIR)")
	evalCmd.Flags().StringSliceVar(&evalPolicies, "policy", nil, "Policy to evaluate, repeatable (default all)")
	evalCmd.Flags().StringVar(&evalManifest, "manifest", "", "YAML manifest with paths, policies and param overrides")
	evalCmd.Flags().BoolVar(&evalStore, "store", false, "Persist the run to the database (DATABASE_URL)")
}

func runEval(cmd *cobra.Command, _ []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	logger, err := buildLogger(config.LogLevel())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var manifest *config.Manifest
	if evalManifest != "" {
		manifest, err = config.LoadManifest(evalManifest)
		if err != nil {
			return err
		}
	}

	docsPath := firstNonEmpty(evalDocs, manifestField(manifest, func(m *config.Manifest) string { return m.Docs }))
	dialogsPath := firstNonEmpty(evalDialogs, manifestField(manifest, func(m *config.Manifest) string { return m.Dialogs }))
	outDir := firstNonEmpty(evalOutDir, manifestField(manifest, func(m *config.Manifest) string { return m.OutDir }), config.ResultsDir())

	if docsPath == "" || dialogsPath == "" {
		return fmt.Errorf("--docs and --dialogs are required (directly or via --manifest)")
	}

	policies := evalPolicies
	if len(policies) == 0 && manifest != nil {
		policies = manifest.Policies
	}
	if len(policies) == 0 {
		policies = policy.Names()
	}
	for _, name := range policies {
		if !policy.Known(name) {
			return &domain.UnknownPolicyError{Name: name}
		}
	}

	docs, docSkips, err := dataset.LoadDocuments(docsPath)
	if err != nil {
		return err
	}
	dialogues, dlgSkips, err := dataset.LoadDialogues(dialogsPath)
	if err != nil {
		return err
	}

	builder := dataset.NewBuilder(logger)
	records, skipped := builder.Build(docs, dialogues)
	skipped.Append(docSkips...)
	skipped.Append(dlgSkips...)

	logger.Info("dataset loaded",
		zap.Int("documents", len(docs)),
		zap.Int("dialogues", len(dialogues)),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped.Count()))

	engine := policy.NewEngine(manifest.EngineParams())
	aggregator := metrics.NewAggregator(engine)

	var summaries []domain.PolicySummary
	var preds []domain.Prediction
	for _, name := range policies {
		summary, policyPreds, err := aggregator.Aggregate(records, name)
		if err != nil {
			return err
		}
		summaries = append(summaries, *summary)
		preds = append(preds, policyPreds...)
	}

	runDir, err := report.NewWriter(outDir, logger).Write(summaries, preds, skipped)
	if err != nil {
		return err
	}

	printSummaries(cmd, summaries)
	fmt.Fprintf(cmd.OutOrStdout(), "\nArtifacts: %s\n", runDir)
	if skipped.Count() > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped rows: %d (see skipped.json)\n", skipped.Count())
	}

	if evalStore {
		if err := persistRun(cmd.Context(), logger, docsPath, dialogsPath, records, preds, summaries, skipped); err != nil {
			return err
		}
	}
	return nil
}

func printSummaries(cmd *cobra.Command, summaries []domain.PolicySummary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Policy\tN\tExactMatch\tStale\tAbstention\n")
	fmt.Fprintf(w, "------\t-\t----------\t-----\t----------\n")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\n",
			s.Policy, s.Overall.N, s.Overall.ExactMatchRate, s.Overall.StaleRate, s.Overall.AbstentionRate)
	}
	w.Flush()
}

// persistRun writes the whole run into Postgres, embedding each record's
// fact text for later similarity search.
func persistRun(ctx context.Context, logger *zap.Logger, docsPath, dialogsPath string,
	records []domain.ConflictRecord, preds []domain.Prediction,
	summaries []domain.PolicySummary, skipped *dataset.SkipReport) error {

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("--store requires DATABASE_URL")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := store.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	embedder, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client unavailable, storing records without embeddings", zap.Error(err))
		embedder = nil
	}

	embeddings := make([][]float32, len(records))
	if embedder != nil {
		for i, rec := range records {
			vec, err := embedder.Embed(ctx, rec.FactText)
			if err != nil {
				logger.Warn("embedding failed, storing record without embedding",
					zap.String("dialog_id", rec.DialogID), zap.Error(err))
				continue
			}
			embeddings[i] = vec
		}
	}

	runStore := store.NewRunStore(pool)
	run := &domain.Run{
		DocsPath:     docsPath,
		DialogsPath:  dialogsPath,
		RecordCount:  len(records),
		SkippedCount: skipped.Count(),
	}
	if err := runStore.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	if err := runStore.SaveRecords(ctx, run.ID, records, embeddings); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	if err := runStore.SavePredictions(ctx, run.ID, preds); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	if err := runStore.SaveSummaries(ctx, run.ID, summaries); err != nil {
		return fmt.Errorf("save summaries: %w", err)
	}

	logger.Info("run persisted", zap.String("run_id", run.ID.String()))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func manifestField(m *config.Manifest, get func(*config.Manifest) string) string {
	if m == nil {
		return ""
	}
	return get(m)
}
