package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/schedule"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
)

type rulesRepoStub struct {
	sets       map[models.RuleSetKind][]models.RuleSet
	cipRules   []models.CIPRule
	exceptions []models.CIPException
	eviction   []models.EvictionRule
	norms      []models.TransitionNorm
	policies   []models.AutoCleanPolicy
	densities  []models.Density
	links      []models.LineLink

	replacedSet      *models.RuleSet
	replacedCIP      []models.CIPRuleWithExceptions
	replacedEviction []models.EvictionRule
	replacedNorms    []models.TransitionNorm
	err              error
}

func (s *rulesRepoStub) ListRuleSets(ctx context.Context, kind models.RuleSetKind) ([]models.RuleSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sets[kind], nil
}

func (s *rulesRepoStub) ListCIPRules(ctx context.Context, setIDs []string) ([]models.CIPRule, error) {
	return s.cipRules, s.err
}

func (s *rulesRepoStub) ListCIPExceptions(ctx context.Context, ruleIDs []string) ([]models.CIPException, error) {
	return s.exceptions, s.err
}

func (s *rulesRepoStub) ListEvictionRules(ctx context.Context, setIDs []string) ([]models.EvictionRule, error) {
	return s.eviction, s.err
}

func (s *rulesRepoStub) ListTransitionNorms(ctx context.Context, setIDs []string) ([]models.TransitionNorm, error) {
	return s.norms, s.err
}

func (s *rulesRepoStub) ReplaceCIPRuleSet(ctx context.Context, set *models.RuleSet, rules []models.CIPRuleWithExceptions) error {
	s.replacedSet = set
	s.replacedCIP = rules
	return s.err
}

func (s *rulesRepoStub) ReplaceEvictionRuleSet(ctx context.Context, set *models.RuleSet, rules []models.EvictionRule) error {
	s.replacedSet = set
	s.replacedEviction = rules
	return s.err
}

func (s *rulesRepoStub) ReplaceNormsRuleSet(ctx context.Context, set *models.RuleSet, norms []models.TransitionNorm) error {
	s.replacedSet = set
	s.replacedNorms = norms
	return s.err
}

func (s *rulesRepoStub) ListAutoCleanPolicies(ctx context.Context) ([]models.AutoCleanPolicy, error) {
	return s.policies, s.err
}

func (s *rulesRepoStub) ReplaceAutoCleanPolicies(ctx context.Context, policies []models.AutoCleanPolicy) error {
	s.policies = policies
	return s.err
}

func (s *rulesRepoStub) ListDensities(ctx context.Context) ([]models.Density, error) {
	return s.densities, s.err
}

func (s *rulesRepoStub) ReplaceDensities(ctx context.Context, densities []models.Density) error {
	s.densities = densities
	return s.err
}

func (s *rulesRepoStub) ListLineLinks(ctx context.Context) ([]models.LineLink, error) {
	return s.links, s.err
}

func (s *rulesRepoStub) ReplaceLineLinks(ctx context.Context, links []models.LineLink) error {
	s.links = links
	return s.err
}

func newRulesService(repo *rulesRepoStub) *RulesService {
	return NewRulesService(repo, nil, nil, nil, RulesServiceConfig{})
}

func TestRulesServiceSnapshotAssembly(t *testing.T) {
	repo := &rulesRepoStub{
		sets: map[models.RuleSetKind][]models.RuleSet{
			models.RuleSetKindCIP:      {{ID: "set-cip", Name: "juices", Lines: pq.StringArray{"Line 1", "Line 2"}}},
			models.RuleSetKindEviction: {{ID: "set-ev", Name: "juices", Lines: pq.StringArray{"Line 1"}}},
			models.RuleSetKindNorms:    {{ID: "set-no", Name: "juices", Lines: pq.StringArray{"Line 1"}}},
		},
		cipRules: []models.CIPRule{
			{ID: "rule-1", RuleSetID: "set-cip", ProductKey: "Juice  Apple", BaseLevel: "CIP2"},
		},
		exceptions: []models.CIPException{
			{CIPRuleID: "rule-1", Level: "CIP1", TargetKey: "Juice Pear"},
		},
		eviction: []models.EvictionRule{
			{RuleSetID: "set-ev", FromKey: "Water Still", TargetKey: "Water Sparkling"},
			{RuleSetID: "set-ev", FromKey: "Water Still", TargetKey: "Juice Apple", Denied: true},
		},
		norms: []models.TransitionNorm{
			{RuleSetID: "set-no", Event: "format_change", Line: "Line 1", Minutes: 75},
			{RuleSetID: "set-no", Event: "SOMETHING_ELSE", Line: "Line 1", Minutes: 10},
		},
		policies: []models.AutoCleanPolicy{
			{Line: "Line 1", Enabled: true, Mode: "Mass", VolumeThreshold: 50000, MinRemainder: 1000, CIPLevel: "CIP1"},
		},
		densities: []models.Density{{ProductType: "Juice", KgPerLitre: 1.045}},
		links:     []models.LineLink{{TargetLine: "Line 2", SourceLine: "Line 1"}},
	}
	service := newRulesService(repo)

	snapshot, err := service.Snapshot(context.Background())
	require.NoError(t, err)

	// CIP rules fan out to every line of the set, keys normalized.
	for _, line := range []string{"Line 1", "Line 2"} {
		rule, ok := snapshot.CIP[line]["juice apple"]
		require.True(t, ok, line)
		assert.Equal(t, schedule.TransitionCIP2, rule.BaseLevel)
		_, redirected := rule.Exceptions[schedule.TransitionCIP1]["juice pear"]
		assert.True(t, redirected)
	}

	eviction := snapshot.Eviction["Line 1"]["water still"]
	_, allowed := eviction.Allowed["water sparkling"]
	_, denied := eviction.Denied["juice apple"]
	assert.True(t, allowed)
	assert.True(t, denied)

	require.Contains(t, snapshot.Norms, "Line 1")
	assert.Equal(t, 75, snapshot.Norms["Line 1"][schedule.TransitionFormatChange])
	assert.Len(t, snapshot.Norms["Line 1"], 1)

	policy := snapshot.AutoClean["Line 1"]
	assert.True(t, policy.Enabled)
	assert.Equal(t, schedule.UnitMass, policy.Mode)
	assert.Equal(t, schedule.TransitionCIP1, policy.Level)

	assert.Equal(t, 1.045, snapshot.Density["juice"])
	assert.Equal(t, "Line 1", snapshot.Links["Line 2"])
}

func TestRulesServiceReplaceCIPRejectsClaimedLine(t *testing.T) {
	repo := &rulesRepoStub{
		sets: map[models.RuleSetKind][]models.RuleSet{
			models.RuleSetKindCIP: {{ID: "set-1", Name: "dairy", Lines: pq.StringArray{"Line 3"}}},
		},
	}
	service := newRulesService(repo)

	err := service.ReplaceCIPRuleSet(context.Background(), dto.ReplaceCIPRuleSetRequest{
		Name:  "juices",
		Lines: []string{"Line 3"},
		Rules: []dto.CIPRuleRequest{{ProductKey: "juice", BaseLevel: "CIP1"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLineRuleSetConflict.Code, appErrors.FromError(err).Code)
}

func TestRulesServiceReplaceCIPSameSetKeepsLines(t *testing.T) {
	repo := &rulesRepoStub{
		sets: map[models.RuleSetKind][]models.RuleSet{
			models.RuleSetKindCIP: {{ID: "set-1", Name: "juices", Lines: pq.StringArray{"Line 1"}}},
		},
	}
	service := newRulesService(repo)

	err := service.ReplaceCIPRuleSet(context.Background(), dto.ReplaceCIPRuleSetRequest{
		Name:  "juices",
		Lines: []string{"Line 1"},
		Rules: []dto.CIPRuleRequest{{ProductKey: "juice", BaseLevel: "CIP2"}},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.replacedSet)
	assert.Equal(t, "juices", repo.replacedSet.Name)
	require.Len(t, repo.replacedCIP, 1)
	assert.Equal(t, "juice", repo.replacedCIP[0].Rule.ProductKey)
}

func TestRulesServiceReplaceNormsRejectsForeignLine(t *testing.T) {
	service := newRulesService(&rulesRepoStub{})

	err := service.ReplaceNormsRuleSet(context.Background(), dto.ReplaceNormsRuleSetRequest{
		Name:  "juices",
		Lines: []string{"Line 1"},
		Norms: []dto.TransitionNormRequest{{Event: "CIP1", Line: "Line 9", Minutes: 40}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRulesServiceReplaceAutoCleanRejectsDuplicateLine(t *testing.T) {
	service := newRulesService(&rulesRepoStub{})

	err := service.ReplaceAutoCleanPolicies(context.Background(), dto.ReplaceAutoCleanPoliciesRequest{
		Policies: []dto.AutoCleanPolicyRequest{
			{Line: "Line 1", Enabled: true},
			{Line: "Line 1", Enabled: false},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRulesServiceReplaceLineLinksRejectsDuplicateTarget(t *testing.T) {
	service := newRulesService(&rulesRepoStub{})

	err := service.ReplaceLineLinks(context.Background(), dto.ReplaceLineLinksRequest{
		Links: []dto.LineLinkRequest{
			{TargetLine: "Line 2", SourceLine: "Line 1"},
			{TargetLine: "Line 2", SourceLine: "Line 3"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRulesServiceListCIPRuleSets(t *testing.T) {
	repo := &rulesRepoStub{
		sets: map[models.RuleSetKind][]models.RuleSet{
			models.RuleSetKindCIP: {{ID: "set-1", Name: "juices", Lines: pq.StringArray{"Line 1"}}},
		},
		cipRules:   []models.CIPRule{{ID: "rule-1", RuleSetID: "set-1", ProductKey: "juice", BaseLevel: "CIP3"}},
		exceptions: []models.CIPException{{CIPRuleID: "rule-1", Level: "CIP1", TargetKey: "water"}},
	}
	service := newRulesService(repo)

	sets, err := service.ListCIPRuleSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "juices", sets[0].Name)
	require.Len(t, sets[0].Rules, 1)
	assert.Equal(t, "CIP3", sets[0].Rules[0].BaseLevel)
	require.Len(t, sets[0].Rules[0].Exceptions, 1)
	assert.Equal(t, "water", sets[0].Rules[0].Exceptions[0].TargetKey)
}
