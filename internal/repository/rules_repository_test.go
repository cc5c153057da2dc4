package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velesoft/lineplan-api/internal/models"
)

func newRulesRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestRulesRepositoryListRuleSets(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "kind", "lines", "created_at", "updated_at"}).
		AddRow("set-1", "juice lines", "cip", `{"Line 1","Line 2"}`, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, name, kind, lines").
		WithArgs(string(models.RuleSetKindCIP)).
		WillReturnRows(rows)

	sets, err := repo.ListRuleSets(context.Background(), models.RuleSetKindCIP)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, pq.StringArray{"Line 1", "Line 2"}, sets[0].Lines)
}

func TestRulesRepositoryListCIPRulesBySets(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	rows := sqlmock.NewRows([]string{"id", "rule_set_id", "product_key", "base_level"}).
		AddRow("r-1", "set-1", "nectar mango", "CIP2").
		AddRow("r-2", "set-2", "juice apple", "CIP1")
	mock.ExpectQuery("SELECT id, rule_set_id, product_key, base_level").
		WithArgs("set-1", "set-2").
		WillReturnRows(rows)

	rules, err := repo.ListCIPRules(context.Background(), []string{"set-1", "set-2"})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "nectar mango", rules[0].ProductKey)

	empty, err := repo.ListCIPRules(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestRulesRepositoryReplaceCIPRuleSet(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM rule_sets").
		WithArgs(string(models.RuleSetKindCIP), "juice lines").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO rule_sets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cip_rules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cip_rule_exceptions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	set := &models.RuleSet{Name: "juice lines", Lines: pq.StringArray{"Line 1"}}
	rules := []models.CIPRuleWithExceptions{
		{
			Rule:       models.CIPRule{ProductKey: "nectar mango", BaseLevel: "CIP2"},
			Exceptions: []models.CIPException{{Level: "CIP1", TargetKey: "nectar peach"}},
		},
	}
	require.NoError(t, repo.ReplaceCIPRuleSet(context.Background(), set, rules))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NotEmpty(t, set.ID)
	assert.Equal(t, models.RuleSetKindCIP, set.Kind)
	assert.Equal(t, set.ID, rules[0].Rule.RuleSetID)
	assert.Equal(t, rules[0].Rule.ID, rules[0].Exceptions[0].CIPRuleID)
}

func TestRulesRepositoryReplaceNormsRuleSet(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM rule_sets").
		WithArgs(string(models.RuleSetKindNorms), "default norms").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO rule_sets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO transition_norms").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO transition_norms").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	set := &models.RuleSet{Name: "default norms", Lines: pq.StringArray{"Line 1"}}
	norms := []models.TransitionNorm{
		{Event: "CIP1", Line: "Line 1", Minutes: 45},
		{Event: "EVICTION", Line: "Line 1", Minutes: 25},
	}
	require.NoError(t, repo.ReplaceNormsRuleSet(context.Background(), set, norms))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, set.ID, norms[1].RuleSetID)
}

func TestRulesRepositoryReplaceDensities(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM densities").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO densities").
		WithArgs("nectar", 1.05, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceDensities(context.Background(), []models.Density{{ProductType: "nectar", KgPerLitre: 1.05}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRulesRepositoryListAutoCleanPolicies(t *testing.T) {
	db, mock, cleanup := newRulesRepoMock(t)
	defer cleanup()
	repo := NewRulesRepository(db)

	rows := sqlmock.NewRows([]string{"line", "enabled", "mode", "volume_threshold", "product_threshold", "min_remainder", "cip_level", "updated_at"}).
		AddRow("Line 1", true, "pieces", 50000.0, 30000.0, 2000.0, "CIP2", time.Now())
	mock.ExpectQuery("SELECT line, enabled, mode").WillReturnRows(rows)

	policies, err := repo.ListAutoCleanPolicies(context.Background())
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.True(t, policies[0].Enabled)
	assert.InDelta(t, 2000.0, policies[0].MinRemainder, 1e-9)
}
