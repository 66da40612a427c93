package management

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "courierpulse/pkg/errors"
)

type Repository interface {
	CreateRule(ctx context.Context, rule *NotificationRule) error
	ListRules(ctx context.Context) ([]NotificationRule, error)
	GetRule(ctx context.Context, id string) (*NotificationRule, error)
	UpdateRule(ctx context.Context, rule *NotificationRule) error
	DeleteRule(ctx context.Context, id string) error
	SetRuleActive(ctx context.Context, id string, active bool) error
	ListExecutions(ctx context.Context, ruleID string, limit int) ([]RuleExecution, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const ruleColumns = `id, name, COALESCE(description, ''), origin, is_active, priority,
	conditions, actions, else_actions, courier_ids, order_statuses, min_order_value,
	cooldown_hours, max_executions, COALESCE(window_start, ''), COALESCE(window_end, ''),
	execution_count, success_count, failure_count, last_executed_at, created_at, updated_at`

func (r *PostgresRepository) CreateRule(ctx context.Context, rule *NotificationRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO notification_rules
			(id, name, description, origin, is_active, priority,
			 conditions, actions, else_actions, courier_ids, order_statuses, min_order_value,
			 cooldown_hours, max_executions, window_start, window_end, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17, $18)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Origin, rule.IsActive, rule.Priority,
		[]byte(rule.Conditions), []byte(rule.Actions), nullableJSON(rule.ElseActions),
		pq.Array(rule.CourierIDs), pq.Array(rule.OrderStatuses), rule.MinOrderValue,
		rule.CooldownHours, nullableInt(rule.MaxExecutions), rule.WindowStart, rule.WindowEnd,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetRule(ctx context.Context, id string) (*NotificationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM notification_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

func (r *PostgresRepository) ListRules(ctx context.Context) ([]NotificationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM notification_rules ORDER BY priority DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []NotificationRule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	return rules, rows.Err()
}

func (r *PostgresRepository) UpdateRule(ctx context.Context, rule *NotificationRule) error {
	rule.UpdatedAt = time.Now()

	query := `
		UPDATE notification_rules
		SET name = $1, description = NULLIF($2, ''), priority = $3, is_active = $4,
		    conditions = $5, actions = $6, else_actions = $7,
		    courier_ids = $8, order_statuses = $9, min_order_value = $10,
		    cooldown_hours = $11, max_executions = $12,
		    window_start = NULLIF($13, ''), window_end = NULLIF($14, ''), updated_at = $15
		WHERE id = $16
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Name, rule.Description, rule.Priority, rule.IsActive,
		[]byte(rule.Conditions), []byte(rule.Actions), nullableJSON(rule.ElseActions),
		pq.Array(rule.CourierIDs), pq.Array(rule.OrderStatuses), rule.MinOrderValue,
		rule.CooldownHours, nullableInt(rule.MaxExecutions),
		rule.WindowStart, rule.WindowEnd, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return requireRowAffected(res)
}

func (r *PostgresRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notification_rules WHERE id = $1`, id)
	if err != nil {
		// Execution history is append-only; a rule it references can only
		// be deactivated, never removed.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return pkgerrors.ErrConflict.WithCause(err).
				WithDetail("message", "rule has execution history and can only be deactivated")
		}
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) SetRuleActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_rules SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle rule: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) ListExecutions(ctx context.Context, ruleID string, limit int) ([]RuleExecution, error) {
	query := `
		SELECT id, rule_id, event_id, match, success, results, executed_at
		FROM rule_executions
		WHERE rule_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []RuleExecution
	for rows.Next() {
		var exec RuleExecution
		var results []byte
		if err := rows.Scan(
			&exec.ID, &exec.RuleID, &exec.EventID, &exec.Match,
			&exec.Success, &results, &exec.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		exec.Results = results
		executions = append(executions, exec)
	}

	return executions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*NotificationRule, error) {
	var rule NotificationRule
	var conditions, actions, elseActions []byte
	var minOrderValue sql.NullFloat64
	var maxExecutions sql.NullInt64
	var lastExecutedAt sql.NullTime

	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Origin, &rule.IsActive, &rule.Priority,
		&conditions, &actions, &elseActions,
		pq.Array(&rule.CourierIDs), pq.Array(&rule.OrderStatuses), &minOrderValue,
		&rule.CooldownHours, &maxExecutions, &rule.WindowStart, &rule.WindowEnd,
		&rule.ExecutionCount, &rule.SuccessCount, &rule.FailureCount, &lastExecutedAt,
		&rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rule.Conditions = conditions
	rule.Actions = actions
	rule.ElseActions = elseActions
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

	return &rule, nil
}

func requireRowAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
