package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RuleRepository interface {
	GetActiveRules(ctx context.Context) ([]Rule, error)
}

type ExecutionRepository interface {
	// ClaimExecution performs the conditional write that reserves one
	// firing: it only succeeds while last_executed_at still matches the
	// snapshot value and the lifetime cap is not exhausted.
	ClaimExecution(ctx context.Context, ruleID string, lastExecutedAt *time.Time, now time.Time) (bool, error)
	CompleteExecution(ctx context.Context, outcome Outcome) error
}

type PostgresRepository struct {
	db     *sql.DB
	parser *ConditionParser
}

func NewRepository(db *sql.DB, parser *ConditionParser) *PostgresRepository {
	return &PostgresRepository{db: db, parser: parser}
}

func (r *PostgresRepository) GetActiveRules(ctx context.Context) ([]Rule, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), origin, is_active, priority,
		       conditions, actions, else_actions,
		       courier_ids, order_statuses, min_order_value,
		       cooldown_hours, max_executions, window_start, window_end,
		       execution_count, success_count, failure_count, last_executed_at,
		       created_at, updated_at
		FROM notification_rules
		WHERE is_active = true
		ORDER BY priority DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}

func (r *PostgresRepository) scanRule(rows *sql.Rows) (Rule, error) {
	var rule Rule
	var conditionsRaw, actionsRaw []byte
	var elseActionsRaw []byte
	var minOrderValue sql.NullFloat64
	var maxExecutions sql.NullInt64
	var windowStart, windowEnd sql.NullString
	var lastExecutedAt sql.NullTime

	if err := rows.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Origin,
		&rule.IsActive,
		&rule.Priority,
		&conditionsRaw,
		&actionsRaw,
		&elseActionsRaw,
		pq.Array(&rule.CourierIDs),
		pq.Array(&rule.OrderStatuses),
		&minOrderValue,
		&rule.CooldownHours,
		&maxExecutions,
		&windowStart,
		&windowEnd,
		&rule.ExecutionCount,
		&rule.SuccessCount,
		&rule.FailureCount,
		&lastExecutedAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return Rule{}, fmt.Errorf("failed to scan rule: %w", err)
	}

	conditions, err := r.parser.Parse(conditionsRaw)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	rule.Conditions = conditions

	rule.Actions, err = ParseActions(actionsRaw)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	rule.ElseActions, err = ParseActions(elseActionsRaw)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	if minOrderValue.Valid {
		rule.MinOrderValue = &minOrderValue.Float64
	}
	if maxExecutions.Valid {
		limit := int(maxExecutions.Int64)
		rule.MaxExecutions = &limit
	}
	if lastExecutedAt.Valid {
		t := lastExecutedAt.Time
		rule.LastExecutedAt = &t
	}

	rule.Window, err = ParseExecutionWindow(windowStart.String, windowEnd.String)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	return rule, nil
}

func (r *PostgresRepository) ClaimExecution(ctx context.Context, ruleID string, lastExecutedAt *time.Time, now time.Time) (bool, error) {
	query := `
		UPDATE notification_rules
		SET execution_count = execution_count + 1,
		    last_executed_at = $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND last_executed_at IS NOT DISTINCT FROM $3
		  AND (max_executions IS NULL OR execution_count < max_executions)
	`

	var last sql.NullTime
	if lastExecutedAt != nil {
		last = sql.NullTime{Time: *lastExecutedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, ruleID, now, last)
	if err != nil {
		return false, fmt.Errorf("failed to claim execution for rule %s: %w", ruleID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result for rule %s: %w", ruleID, err)
	}

	return affected == 1, nil
}

func (r *PostgresRepository) CompleteExecution(ctx context.Context, outcome Outcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counterColumn := "success_count"
	if !outcome.Success {
		counterColumn = "failure_count"
	}
	updateQuery := fmt.Sprintf(`
		UPDATE notification_rules
		SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1
	`, counterColumn, counterColumn)

	if _, err := tx.ExecContext(ctx, updateQuery, outcome.RuleID); err != nil {
		return fmt.Errorf("failed to update counters for rule %s: %w", outcome.RuleID, err)
	}

	resultsJSON, err := json.Marshal(outcome.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal action results: %w", err)
	}

	insertQuery := `
		INSERT INTO rule_executions (id, rule_id, event_id, match, success, results, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		uuid.New().String(),
		outcome.RuleID,
		outcome.EventID,
		string(outcome.Match),
		outcome.Success,
		resultsJSON,
		outcome.ExecutedAt,
	); err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit execution record: %w", err)
	}

	return nil
}
