package learning

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/switchboard/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// OutcomeStat is one accumulated (project type, intent, workflow) row.
type OutcomeStat struct {
	ProjectType string
	Intent      models.Intent
	Workflow    models.Workflow
	Uses        int
	Successes   int
	RatingSum   int
	UpdatedAt   time.Time
}

// SuccessRate returns successes/uses, or 0 when unused.
func (s OutcomeStat) SuccessRate() float64 {
	if s.Uses == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Uses)
}

// Store manages the SQLite database holding cross-context statistics.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a Store and initializes the database schema.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so subsequent pragmas wait on locks; retry with
	// backoff covers concurrent initialization of the same file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on
// "database is locked" errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordOutcome folds one rated decision into the accumulated
// statistics for its (project type, intent, workflow) triple.
func (s *Store) RecordOutcome(ctx context.Context, projectType string, intent models.Intent, workflow models.Workflow, success bool, rating int) error {
	successInc := 0
	if success {
		successInc = 1
	}

	query := `INSERT INTO project_outcomes (project_type, intent, workflow, uses, successes, rating_sum, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_type, intent, workflow) DO UPDATE SET
			uses = uses + 1,
			successes = successes + excluded.successes,
			rating_sum = rating_sum + excluded.rating_sum,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, projectType, string(intent), string(workflow), successInc, rating); err != nil {
		return fmt.Errorf("upsert outcome: %w", err)
	}
	return nil
}

// GetOutcomes returns the accumulated rows for a (project type,
// intent) pair, best success rate first.
func (s *Store) GetOutcomes(ctx context.Context, projectType string, intent models.Intent) ([]OutcomeStat, error) {
	query := `SELECT project_type, intent, workflow, uses, successes, rating_sum, updated_at
		FROM project_outcomes
		WHERE project_type = ? AND intent = ?
		ORDER BY CAST(successes AS REAL) / uses DESC, uses DESC`

	rows, err := s.db.QueryContext(ctx, query, projectType, string(intent))
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var stats []OutcomeStat
	for rows.Next() {
		var stat OutcomeStat
		var intentStr, workflowStr string
		if err := rows.Scan(&stat.ProjectType, &intentStr, &workflowStr, &stat.Uses, &stat.Successes, &stat.RatingSum, &stat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		stat.Intent = models.Intent(intentStr)
		stat.Workflow = models.Workflow(workflowStr)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return stats, nil
}

// UpsertProfile stores or replaces a project profile.
func (s *Store) UpsertProfile(ctx context.Context, profile models.ProjectProfile) error {
	intents, err := json.Marshal(profile.TypicalIntents)
	if err != nil {
		return fmt.Errorf("marshal typical intents: %w", err)
	}

	planFlag := 0
	if profile.PlanBeforeExecute {
		planFlag = 1
	}

	query := `INSERT INTO project_profiles (project_type, default_workflow, plan_before_execute, typical_intents, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_type) DO UPDATE SET
			default_workflow = excluded.default_workflow,
			plan_before_execute = excluded.plan_before_execute,
			typical_intents = excluded.typical_intents,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, profile.ProjectType, string(profile.DefaultWorkflow), planFlag, string(intents)); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile for a project type, or
// (nil, nil) when none exists.
func (s *Store) GetProfile(ctx context.Context, projectType string) (*models.ProjectProfile, error) {
	query := `SELECT project_type, default_workflow, plan_before_execute, typical_intents, updated_at
		FROM project_profiles WHERE project_type = ?`

	var profile models.ProjectProfile
	var workflowStr, intentsJSON string
	var planFlag int
	err := s.db.QueryRowContext(ctx, query, projectType).Scan(
		&profile.ProjectType, &workflowStr, &planFlag, &intentsJSON, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	profile.DefaultWorkflow = models.Workflow(workflowStr)
	profile.PlanBeforeExecute = planFlag != 0
	if err := json.Unmarshal([]byte(intentsJSON), &profile.TypicalIntents); err != nil {
		// A corrupt intents blob should not hide the profile.
		profile.TypicalIntents = nil
	}

	return &profile, nil
}
