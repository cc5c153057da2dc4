package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velesoft/lineplan-api/internal/models"
)

// RulesRepository persists changeover rule sets and the per-line tables
// consumed by the schedule builder.
type RulesRepository struct {
	db *sqlx.DB
}

// NewRulesRepository constructs the repository.
func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

// ListRuleSets returns all rule sets of one kind.
func (r *RulesRepository) ListRuleSets(ctx context.Context, kind models.RuleSetKind) ([]models.RuleSet, error) {
	const query = `SELECT id, name, kind, lines, created_at, updated_at FROM rule_sets WHERE kind = $1 ORDER BY name ASC`
	var sets []models.RuleSet
	if err := r.db.SelectContext(ctx, &sets, query, kind); err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	return sets, nil
}

// ListCIPRules returns the cleaning rules of the given sets.
func (r *RulesRepository) ListCIPRules(ctx context.Context, setIDs []string) ([]models.CIPRule, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, rule_set_id, product_key, base_level
FROM cip_rules WHERE rule_set_id IN (%s) ORDER BY product_key ASC`, placeholders(len(setIDs)))
	var rules []models.CIPRule
	if err := r.db.SelectContext(ctx, &rules, query, idArgs(setIDs)...); err != nil {
		return nil, fmt.Errorf("list cip rules: %w", err)
	}
	return rules, nil
}

// ListCIPExceptions returns the exception rows of the given rules.
func (r *RulesRepository) ListCIPExceptions(ctx context.Context, ruleIDs []string) ([]models.CIPException, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, cip_rule_id, level, target_key
FROM cip_rule_exceptions WHERE cip_rule_id IN (%s) ORDER BY target_key ASC`, placeholders(len(ruleIDs)))
	var exceptions []models.CIPException
	if err := r.db.SelectContext(ctx, &exceptions, query, idArgs(ruleIDs)...); err != nil {
		return nil, fmt.Errorf("list cip exceptions: %w", err)
	}
	return exceptions, nil
}

// ListEvictionRules returns the eviction rows of the given sets.
func (r *RulesRepository) ListEvictionRules(ctx context.Context, setIDs []string) ([]models.EvictionRule, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, rule_set_id, from_key, target_key, denied
FROM eviction_rules WHERE rule_set_id IN (%s) ORDER BY from_key ASC, target_key ASC`, placeholders(len(setIDs)))
	var rules []models.EvictionRule
	if err := r.db.SelectContext(ctx, &rules, query, idArgs(setIDs)...); err != nil {
		return nil, fmt.Errorf("list eviction rules: %w", err)
	}
	return rules, nil
}

// ListTransitionNorms returns the norm rows of the given sets.
func (r *RulesRepository) ListTransitionNorms(ctx context.Context, setIDs []string) ([]models.TransitionNorm, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, rule_set_id, event, line, minutes
FROM transition_norms WHERE rule_set_id IN (%s) ORDER BY line ASC, event ASC`, placeholders(len(setIDs)))
	var norms []models.TransitionNorm
	if err := r.db.SelectContext(ctx, &norms, query, idArgs(setIDs)...); err != nil {
		return nil, fmt.Errorf("list transition norms: %w", err)
	}
	return norms, nil
}

// ReplaceCIPRuleSet swaps the named cleaning set and its rows in one
// transaction. Row deletion cascades from the set.
func (r *RulesRepository) ReplaceCIPRuleSet(ctx context.Context, set *models.RuleSet, rules []models.CIPRuleWithExceptions) error {
	tx, err := r.beginReplaceSet(ctx, set, models.RuleSetKindCIP)
	if err != nil {
		return err
	}
	const ruleQuery = `INSERT INTO cip_rules (id, rule_set_id, product_key, base_level) VALUES (:id, :rule_set_id, :product_key, :base_level)`
	const exceptionQuery = `INSERT INTO cip_rule_exceptions (id, cip_rule_id, level, target_key) VALUES (:id, :cip_rule_id, :level, :target_key)`
	for i := range rules {
		rule := &rules[i].Rule
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		rule.RuleSetID = set.ID
		if _, err := tx.NamedExecContext(ctx, ruleQuery, rule); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cip rule: %w", err)
		}
		for j := range rules[i].Exceptions {
			exception := &rules[i].Exceptions[j]
			if exception.ID == "" {
				exception.ID = uuid.NewString()
			}
			exception.CIPRuleID = rule.ID
			if _, err := tx.NamedExecContext(ctx, exceptionQuery, exception); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert cip exception: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cip rule set tx: %w", err)
	}
	return nil
}

// ReplaceEvictionRuleSet swaps the named eviction set and its rows.
func (r *RulesRepository) ReplaceEvictionRuleSet(ctx context.Context, set *models.RuleSet, rules []models.EvictionRule) error {
	tx, err := r.beginReplaceSet(ctx, set, models.RuleSetKindEviction)
	if err != nil {
		return err
	}
	const query = `INSERT INTO eviction_rules (id, rule_set_id, from_key, target_key, denied) VALUES (:id, :rule_set_id, :from_key, :target_key, :denied)`
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
		rules[i].RuleSetID = set.ID
		if _, err := tx.NamedExecContext(ctx, query, rules[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert eviction rule: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit eviction rule set tx: %w", err)
	}
	return nil
}

// ReplaceNormsRuleSet swaps the named norms set and its rows.
func (r *RulesRepository) ReplaceNormsRuleSet(ctx context.Context, set *models.RuleSet, norms []models.TransitionNorm) error {
	tx, err := r.beginReplaceSet(ctx, set, models.RuleSetKindNorms)
	if err != nil {
		return err
	}
	const query = `INSERT INTO transition_norms (id, rule_set_id, event, line, minutes) VALUES (:id, :rule_set_id, :event, :line, :minutes)`
	for i := range norms {
		if norms[i].ID == "" {
			norms[i].ID = uuid.NewString()
		}
		norms[i].RuleSetID = set.ID
		if _, err := tx.NamedExecContext(ctx, query, norms[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert transition norm: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit norms rule set tx: %w", err)
	}
	return nil
}

// beginReplaceSet opens a transaction, removes any set with the same kind
// and name and inserts the fresh set header.
func (r *RulesRepository) beginReplaceSet(ctx context.Context, set *models.RuleSet, kind models.RuleSetKind) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rule set tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_sets WHERE kind = $1 AND name = $2`, kind, set.Name); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("clear rule set: %w", err)
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	set.Kind = kind
	now := time.Now().UTC()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now
	const query = `INSERT INTO rule_sets (id, name, kind, lines, created_at, updated_at) VALUES (:id, :name, :kind, :lines, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, set); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert rule set: %w", err)
	}
	return tx, nil
}

// ListAutoCleanPolicies returns every per-line cleaning policy.
func (r *RulesRepository) ListAutoCleanPolicies(ctx context.Context) ([]models.AutoCleanPolicy, error) {
	const query = `SELECT line, enabled, mode, volume_threshold, product_threshold, min_remainder, cip_level, updated_at FROM auto_clean_policies ORDER BY line ASC`
	var policies []models.AutoCleanPolicy
	if err := r.db.SelectContext(ctx, &policies, query); err != nil {
		return nil, fmt.Errorf("list auto clean policies: %w", err)
	}
	return policies, nil
}

// ReplaceAutoCleanPolicies swaps the whole policy table.
func (r *RulesRepository) ReplaceAutoCleanPolicies(ctx context.Context, policies []models.AutoCleanPolicy) error {
	const query = `INSERT INTO auto_clean_policies (line, enabled, mode, volume_threshold, product_threshold, min_remainder, cip_level, updated_at)
VALUES (:line, :enabled, :mode, :volume_threshold, :product_threshold, :min_remainder, :cip_level, :updated_at)`
	return r.replaceTable(ctx, `DELETE FROM auto_clean_policies`, query, len(policies), func(i int) interface{} {
		policies[i].UpdatedAt = time.Now().UTC()
		return policies[i]
	})
}

// ListDensities returns the product density table.
func (r *RulesRepository) ListDensities(ctx context.Context) ([]models.Density, error) {
	const query = `SELECT product_type, kg_per_litre, updated_at FROM densities ORDER BY product_type ASC`
	var densities []models.Density
	if err := r.db.SelectContext(ctx, &densities, query); err != nil {
		return nil, fmt.Errorf("list densities: %w", err)
	}
	return densities, nil
}

// ReplaceDensities swaps the whole density table.
func (r *RulesRepository) ReplaceDensities(ctx context.Context, densities []models.Density) error {
	const query = `INSERT INTO densities (product_type, kg_per_litre, updated_at) VALUES (:product_type, :kg_per_litre, :updated_at)`
	return r.replaceTable(ctx, `DELETE FROM densities`, query, len(densities), func(i int) interface{} {
		densities[i].UpdatedAt = time.Now().UTC()
		return densities[i]
	})
}

// ListLineLinks returns every line link.
func (r *RulesRepository) ListLineLinks(ctx context.Context) ([]models.LineLink, error) {
	const query = `SELECT target_line, source_line, updated_at FROM line_links ORDER BY target_line ASC`
	var links []models.LineLink
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list line links: %w", err)
	}
	return links, nil
}

// ReplaceLineLinks swaps the whole link table.
func (r *RulesRepository) ReplaceLineLinks(ctx context.Context, links []models.LineLink) error {
	const query = `INSERT INTO line_links (target_line, source_line, updated_at) VALUES (:target_line, :source_line, :updated_at)`
	return r.replaceTable(ctx, `DELETE FROM line_links`, query, len(links), func(i int) interface{} {
		links[i].UpdatedAt = time.Now().UTC()
		return links[i]
	})
}

// replaceTable clears a table and re-inserts rows inside one transaction.
func (r *RulesRepository) replaceTable(ctx context.Context, clearQuery, insertQuery string, n int, row func(int) interface{}) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear table: %w", err)
	}
	for i := 0; i < n; i++ {
		if _, err := tx.NamedExecContext(ctx, insertQuery, row(i)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
