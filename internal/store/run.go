package store

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/veridict/veridict/internal/domain"
)

// overallScenario keys the whole-set rate row in the summaries table.
const overallScenario = "_overall"

type RunStore struct {
	db *pgxpool.Pool
}

func NewRunStore(db *pgxpool.Pool) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) CreateRun(ctx context.Context, run *domain.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO runs (id, docs_path, dialogs_path, record_count, skipped_count)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		run.ID, run.DocsPath, run.DialogsPath, run.RecordCount, run.SkippedCount,
	).Scan(&run.CreatedAt)
}

func (s *RunStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	run := &domain.Run{}
	err := s.db.QueryRow(ctx,
		`SELECT id, docs_path, dialogs_path, record_count, skipped_count, created_at
		 FROM runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.DocsPath, &run.DialogsPath, &run.RecordCount, &run.SkippedCount, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, docs_path, dialogs_path, record_count, skipped_count, created_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(&run.ID, &run.DocsPath, &run.DialogsPath, &run.RecordCount, &run.SkippedCount, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveRecords persists the run's conflict records. embeddings may be nil or
// hold a nil entry where no embedding was computed; indices align with
// records.
func (s *RunStore) SaveRecords(ctx context.Context, runID uuid.UUID, records []domain.ConflictRecord, embeddings [][]float32) error {
	for i, rec := range records {
		var emb *pgvector.Vector
		if i < len(embeddings) && len(embeddings[i]) > 0 {
			v := pgvector.NewVector(embeddings[i])
			emb = &v
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO conflict_records
			 (id, run_id, dialog_id, subject, fact_text, fact_timestamp, memory_text, memory_timestamp, reliability, question, ground_truth, scenario, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			rec.ID, runID, rec.DialogID, rec.Subject, rec.FactText, rec.FactTimestamp,
			rec.MemoryText, rec.MemoryTimestamp, rec.Reliability, rec.Question,
			rec.GroundTruth, string(rec.Scenario), emb,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RunStore) SavePredictions(ctx context.Context, runID uuid.UUID, preds []domain.Prediction) error {
	for _, p := range preds {
		_, err := s.db.Exec(ctx,
			`INSERT INTO predictions
			 (run_id, record_id, dialog_id, subject, policy, chosen_source, answer, confidence, ground_truth, scenario, exact_match, stale)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, p.RecordID, p.DialogID, p.Subject, p.Policy, string(p.ChosenSource),
			p.Answer, p.Confidence, p.GroundTruth, string(p.Scenario), p.ExactMatch, p.Stale,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RunStore) SaveSummaries(ctx context.Context, runID uuid.UUID, summaries []domain.PolicySummary) error {
	insert := func(policy, scenario string, rs domain.RateSet) error {
		_, err := s.db.Exec(ctx,
			`INSERT INTO summaries (run_id, policy, scenario, n, exact_match_rate, stale_rate, abstention_rate)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, policy, scenario, rs.N, rs.ExactMatchRate, rs.StaleRate, rs.AbstentionRate,
		)
		return err
	}

	for _, summary := range summaries {
		if err := insert(summary.Policy, overallScenario, summary.Overall); err != nil {
			return err
		}
		for _, sc := range domain.Scenarios() {
			if rs, ok := summary.ByScenario[sc]; ok {
				if err := insert(summary.Policy, string(sc), rs); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *RunStore) GetSummaries(ctx context.Context, runID uuid.UUID) ([]domain.PolicySummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT policy, scenario, n, exact_match_rate, stale_rate, abstention_rate
		 FROM summaries WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPolicy := make(map[string]*domain.PolicySummary)
	for rows.Next() {
		var policy, scenario string
		var rs domain.RateSet
		if err := rows.Scan(&policy, &scenario, &rs.N, &rs.ExactMatchRate, &rs.StaleRate, &rs.AbstentionRate); err != nil {
			return nil, err
		}
		summary, ok := byPolicy[policy]
		if !ok {
			summary = &domain.PolicySummary{
				Policy:     policy,
				ByScenario: make(map[domain.Scenario]domain.RateSet),
			}
			byPolicy[policy] = summary
		}
		if scenario == overallScenario {
			summary.Overall = rs
		} else {
			summary.ByScenario[domain.Scenario(scenario)] = rs
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(byPolicy))
	for name := range byPolicy {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]domain.PolicySummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, *byPolicy[name])
	}
	return summaries, nil
}

func (s *RunStore) GetPredictions(ctx context.Context, runID uuid.UUID, policy string) ([]domain.Prediction, error) {
	query := `SELECT record_id, dialog_id, subject, policy, chosen_source, answer, confidence, ground_truth, scenario, exact_match, stale
	          FROM predictions WHERE run_id = $1`
	args := []any{runID}
	if policy != "" {
		query += ` AND policy = $2`
		args = append(args, policy)
	}
	query += ` ORDER BY policy, dialog_id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		var source, scenario string
		if err := rows.Scan(&p.RecordID, &p.DialogID, &p.Subject, &p.Policy, &source, &p.Answer, &p.Confidence, &p.GroundTruth, &scenario, &p.ExactMatch, &p.Stale); err != nil {
			return nil, err
		}
		p.ChosenSource = domain.Source(source)
		p.Scenario = domain.Scenario(scenario)
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// SimilarRecords returns stored records closest to the query embedding by
// cosine distance, most similar first.
func (s *RunStore) SimilarRecords(ctx context.Context, embedding []float32, limit int) ([]domain.RecordWithScore, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(ctx,
		`SELECT id, dialog_id, subject, fact_text, fact_timestamp, memory_text, memory_timestamp, reliability, question, ground_truth, scenario,
		        1 - (embedding <=> $1) AS similarity
		 FROM conflict_records
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RecordWithScore
	for rows.Next() {
		var r domain.RecordWithScore
		var scenario string
		if err := rows.Scan(&r.ID, &r.DialogID, &r.Subject, &r.FactText, &r.FactTimestamp, &r.MemoryText, &r.MemoryTimestamp, &r.Reliability, &r.Question, &r.GroundTruth, &scenario, &r.Similarity); err != nil {
			return nil, err
		}
		r.Scenario = domain.Scenario(scenario)
		results = append(results, r)
	}
	return results, rows.Err()
}
