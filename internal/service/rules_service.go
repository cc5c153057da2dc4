package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/schedule"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
)

const rulesSnapshotCacheKey = "rules:snapshot"

type rulesRepository interface {
	ListRuleSets(ctx context.Context, kind models.RuleSetKind) ([]models.RuleSet, error)
	ListCIPRules(ctx context.Context, setIDs []string) ([]models.CIPRule, error)
	ListCIPExceptions(ctx context.Context, ruleIDs []string) ([]models.CIPException, error)
	ListEvictionRules(ctx context.Context, setIDs []string) ([]models.EvictionRule, error)
	ListTransitionNorms(ctx context.Context, setIDs []string) ([]models.TransitionNorm, error)
	ReplaceCIPRuleSet(ctx context.Context, set *models.RuleSet, rules []models.CIPRuleWithExceptions) error
	ReplaceEvictionRuleSet(ctx context.Context, set *models.RuleSet, rules []models.EvictionRule) error
	ReplaceNormsRuleSet(ctx context.Context, set *models.RuleSet, norms []models.TransitionNorm) error
	ListAutoCleanPolicies(ctx context.Context) ([]models.AutoCleanPolicy, error)
	ReplaceAutoCleanPolicies(ctx context.Context, policies []models.AutoCleanPolicy) error
	ListDensities(ctx context.Context) ([]models.Density, error)
	ReplaceDensities(ctx context.Context, densities []models.Density) error
	ListLineLinks(ctx context.Context) ([]models.LineLink, error)
	ReplaceLineLinks(ctx context.Context, links []models.LineLink) error
}

// RulesService maintains the changeover rule tables and assembles the
// immutable snapshot consumed by the schedule builder.
type RulesService struct {
	repo        rulesRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	snapshotTTL time.Duration
}

// RulesServiceConfig tunes runtime behaviour.
type RulesServiceConfig struct {
	SnapshotTTL time.Duration
}

// NewRulesService constructs a RulesService.
func NewRulesService(repo rulesRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg RulesServiceConfig) *RulesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	return &RulesService{
		repo:        repo,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		snapshotTTL: cfg.SnapshotTTL,
	}
}

// ListCIPRuleSets returns every cleaning rule set with its rows.
func (s *RulesService) ListCIPRuleSets(ctx context.Context) ([]dto.CIPRuleSetResponse, error) {
	sets, rules, exceptions, err := s.loadCIP(ctx)
	if err != nil {
		return nil, err
	}
	rulesBySet := make(map[string][]models.CIPRule)
	for _, rule := range rules {
		rulesBySet[rule.RuleSetID] = append(rulesBySet[rule.RuleSetID], rule)
	}
	exceptionsByRule := make(map[string][]models.CIPException)
	for _, exception := range exceptions {
		exceptionsByRule[exception.CIPRuleID] = append(exceptionsByRule[exception.CIPRuleID], exception)
	}

	responses := make([]dto.CIPRuleSetResponse, 0, len(sets))
	for _, set := range sets {
		resp := dto.CIPRuleSetResponse{ID: set.ID, Name: set.Name, Lines: set.Lines, Rules: []dto.CIPRuleRequest{}}
		for _, rule := range rulesBySet[set.ID] {
			row := dto.CIPRuleRequest{ProductKey: rule.ProductKey, BaseLevel: rule.BaseLevel}
			for _, exception := range exceptionsByRule[rule.ID] {
				row.Exceptions = append(row.Exceptions, dto.CIPExceptionRequest{Level: exception.Level, TargetKey: exception.TargetKey})
			}
			resp.Rules = append(resp.Rules, row)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ReplaceCIPRuleSet swaps one named cleaning set after checking that its
// lines are not claimed by another set of the same kind.
func (s *RulesService) ReplaceCIPRuleSet(ctx context.Context, req dto.ReplaceCIPRuleSetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cip rule set payload")
	}
	if err := s.ensureLinesFree(ctx, models.RuleSetKindCIP, req.Name, req.Lines); err != nil {
		return err
	}
	set := &models.RuleSet{Name: req.Name, Lines: pq.StringArray(req.Lines)}
	rules := make([]models.CIPRuleWithExceptions, 0, len(req.Rules))
	for _, rule := range req.Rules {
		bundle := models.CIPRuleWithExceptions{Rule: models.CIPRule{ProductKey: rule.ProductKey, BaseLevel: rule.BaseLevel}}
		for _, exception := range rule.Exceptions {
			bundle.Exceptions = append(bundle.Exceptions, models.CIPException{Level: exception.Level, TargetKey: exception.TargetKey})
		}
		rules = append(rules, bundle)
	}
	if err := s.repo.ReplaceCIPRuleSet(ctx, set, rules); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace cip rule set")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// ListEvictionRuleSets returns every eviction rule set with its rows.
func (s *RulesService) ListEvictionRuleSets(ctx context.Context) ([]dto.EvictionRuleSetResponse, error) {
	sets, err := s.repo.ListRuleSets(ctx, models.RuleSetKindEviction)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eviction rule sets")
	}
	rules, err := s.repo.ListEvictionRules(ctx, setIDs(sets))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eviction rules")
	}
	rulesBySet := make(map[string][]models.EvictionRule)
	for _, rule := range rules {
		rulesBySet[rule.RuleSetID] = append(rulesBySet[rule.RuleSetID], rule)
	}

	responses := make([]dto.EvictionRuleSetResponse, 0, len(sets))
	for _, set := range sets {
		resp := dto.EvictionRuleSetResponse{ID: set.ID, Name: set.Name, Lines: set.Lines, Rules: []dto.EvictionRuleRequest{}}
		for _, rule := range rulesBySet[set.ID] {
			resp.Rules = append(resp.Rules, dto.EvictionRuleRequest{FromKey: rule.FromKey, TargetKey: rule.TargetKey, Denied: rule.Denied})
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ReplaceEvictionRuleSet swaps one named eviction set.
func (s *RulesService) ReplaceEvictionRuleSet(ctx context.Context, req dto.ReplaceEvictionRuleSetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid eviction rule set payload")
	}
	if err := s.ensureLinesFree(ctx, models.RuleSetKindEviction, req.Name, req.Lines); err != nil {
		return err
	}
	set := &models.RuleSet{Name: req.Name, Lines: pq.StringArray(req.Lines)}
	rules := make([]models.EvictionRule, 0, len(req.Rules))
	for _, rule := range req.Rules {
		rules = append(rules, models.EvictionRule{FromKey: rule.FromKey, TargetKey: rule.TargetKey, Denied: rule.Denied})
	}
	if err := s.repo.ReplaceEvictionRuleSet(ctx, set, rules); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace eviction rule set")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// ListNormsRuleSets returns every norms set with its rows.
func (s *RulesService) ListNormsRuleSets(ctx context.Context) ([]dto.NormsRuleSetResponse, error) {
	sets, err := s.repo.ListRuleSets(ctx, models.RuleSetKindNorms)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list norms rule sets")
	}
	norms, err := s.repo.ListTransitionNorms(ctx, setIDs(sets))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transition norms")
	}
	normsBySet := make(map[string][]models.TransitionNorm)
	for _, norm := range norms {
		normsBySet[norm.RuleSetID] = append(normsBySet[norm.RuleSetID], norm)
	}

	responses := make([]dto.NormsRuleSetResponse, 0, len(sets))
	for _, set := range sets {
		resp := dto.NormsRuleSetResponse{ID: set.ID, Name: set.Name, Lines: set.Lines, Norms: []dto.TransitionNormRequest{}}
		for _, norm := range normsBySet[set.ID] {
			resp.Norms = append(resp.Norms, dto.TransitionNormRequest{Event: norm.Event, Line: norm.Line, Minutes: norm.Minutes})
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ReplaceNormsRuleSet swaps one named norms set. Every row must target a
// line owned by the set.
func (s *RulesService) ReplaceNormsRuleSet(ctx context.Context, req dto.ReplaceNormsRuleSetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid norms payload")
	}
	owned := make(map[string]bool, len(req.Lines))
	for _, line := range req.Lines {
		owned[line] = true
	}
	for _, norm := range req.Norms {
		if !owned[norm.Line] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("norm row targets line %q outside the set", norm.Line))
		}
	}
	if err := s.ensureLinesFree(ctx, models.RuleSetKindNorms, req.Name, req.Lines); err != nil {
		return err
	}
	set := &models.RuleSet{Name: req.Name, Lines: pq.StringArray(req.Lines)}
	norms := make([]models.TransitionNorm, 0, len(req.Norms))
	for _, norm := range req.Norms {
		norms = append(norms, models.TransitionNorm{Event: norm.Event, Line: norm.Line, Minutes: norm.Minutes})
	}
	if err := s.repo.ReplaceNormsRuleSet(ctx, set, norms); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace norms rule set")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// ListAutoCleanPolicies returns the per-line threshold policies.
func (s *RulesService) ListAutoCleanPolicies(ctx context.Context) ([]dto.AutoCleanPolicyResponse, error) {
	policies, err := s.repo.ListAutoCleanPolicies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list auto clean policies")
	}
	responses := make([]dto.AutoCleanPolicyResponse, 0, len(policies))
	for _, policy := range policies {
		responses = append(responses, dto.AutoCleanPolicyResponse{
			Line:             policy.Line,
			Enabled:          policy.Enabled,
			Mode:             policy.Mode,
			VolumeThreshold:  policy.VolumeThreshold,
			ProductThreshold: policy.ProductThreshold,
			MinRemainder:     policy.MinRemainder,
			Level:            policy.CIPLevel,
		})
	}
	return responses, nil
}

// ReplaceAutoCleanPolicies swaps the whole policy table.
func (s *RulesService) ReplaceAutoCleanPolicies(ctx context.Context, req dto.ReplaceAutoCleanPoliciesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto clean payload")
	}
	seen := make(map[string]bool, len(req.Policies))
	policies := make([]models.AutoCleanPolicy, 0, len(req.Policies))
	for _, policy := range req.Policies {
		if seen[policy.Line] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate policy for line %q", policy.Line))
		}
		seen[policy.Line] = true
		policies = append(policies, models.AutoCleanPolicy{
			Line:             policy.Line,
			Enabled:          policy.Enabled,
			Mode:             policy.Mode,
			VolumeThreshold:  policy.VolumeThreshold,
			ProductThreshold: policy.ProductThreshold,
			MinRemainder:     policy.MinRemainder,
			CIPLevel:         policy.Level,
		})
	}
	if err := s.repo.ReplaceAutoCleanPolicies(ctx, policies); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace auto clean policies")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// ListDensities returns the density table.
func (s *RulesService) ListDensities(ctx context.Context) ([]dto.DensityResponse, error) {
	densities, err := s.repo.ListDensities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list densities")
	}
	responses := make([]dto.DensityResponse, 0, len(densities))
	for _, density := range densities {
		responses = append(responses, dto.DensityResponse{ProductType: density.ProductType, KgPerLitre: density.KgPerLitre})
	}
	return responses, nil
}

// ReplaceDensities swaps the density table.
func (s *RulesService) ReplaceDensities(ctx context.Context, req dto.ReplaceDensitiesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid densities payload")
	}
	densities := make([]models.Density, 0, len(req.Densities))
	for _, density := range req.Densities {
		densities = append(densities, models.Density{ProductType: density.ProductType, KgPerLitre: density.KgPerLitre})
	}
	if err := s.repo.ReplaceDensities(ctx, densities); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace densities")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// ListLineLinks returns the cross-line time links.
func (s *RulesService) ListLineLinks(ctx context.Context) ([]dto.LineLinkResponse, error) {
	links, err := s.repo.ListLineLinks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list line links")
	}
	responses := make([]dto.LineLinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, dto.LineLinkResponse{TargetLine: link.TargetLine, SourceLine: link.SourceLine})
	}
	return responses, nil
}

// ReplaceLineLinks swaps the link table. A target line may be linked to a
// single source.
func (s *RulesService) ReplaceLineLinks(ctx context.Context, req dto.ReplaceLineLinksRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid line links payload")
	}
	seen := make(map[string]bool, len(req.Links))
	links := make([]models.LineLink, 0, len(req.Links))
	for _, link := range req.Links {
		if seen[link.TargetLine] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %q is linked twice", link.TargetLine))
		}
		seen[link.TargetLine] = true
		links = append(links, models.LineLink{TargetLine: link.TargetLine, SourceLine: link.SourceLine})
	}
	if err := s.repo.ReplaceLineLinks(ctx, links); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace line links")
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// Snapshot assembles the immutable rule snapshot the builder consumes,
// serving it from cache when possible.
func (s *RulesService) Snapshot(ctx context.Context) (*schedule.RuleSet, error) {
	if s.cache.Enabled() {
		var cached schedule.RuleSet
		if hit, _ := s.cache.Get(ctx, rulesSnapshotCacheKey, &cached); hit {
			return &cached, nil
		}
	}
	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, rulesSnapshotCacheKey, snapshot, s.snapshotTTL)
	return snapshot, nil
}

func (s *RulesService) buildSnapshot(ctx context.Context) (*schedule.RuleSet, error) {
	snapshot := schedule.NewRuleSet()

	cipSets, cipRules, cipExceptions, err := s.loadCIP(ctx)
	if err != nil {
		return nil, err
	}
	exceptionsByRule := make(map[string][]models.CIPException)
	for _, exception := range cipExceptions {
		exceptionsByRule[exception.CIPRuleID] = append(exceptionsByRule[exception.CIPRuleID], exception)
	}
	cipRulesBySet := make(map[string][]models.CIPRule)
	for _, rule := range cipRules {
		cipRulesBySet[rule.RuleSetID] = append(cipRulesBySet[rule.RuleSetID], rule)
	}
	for _, set := range cipSets {
		for _, rule := range cipRulesBySet[set.ID] {
			converted := schedule.CIPRule{
				BaseLevel:  schedule.TransitionType(rule.BaseLevel),
				Exceptions: map[schedule.TransitionType]map[string]struct{}{},
			}
			for _, exception := range exceptionsByRule[rule.ID] {
				level := schedule.TransitionType(exception.Level)
				if converted.Exceptions[level] == nil {
					converted.Exceptions[level] = map[string]struct{}{}
				}
				converted.Exceptions[level][schedule.NormalizeKey(exception.TargetKey)] = struct{}{}
			}
			key := schedule.NormalizeKey(rule.ProductKey)
			for _, line := range set.Lines {
				if snapshot.CIP[line] == nil {
					snapshot.CIP[line] = map[string]schedule.CIPRule{}
				}
				snapshot.CIP[line][key] = converted
			}
		}
	}

	evictionSets, err := s.repo.ListRuleSets(ctx, models.RuleSetKindEviction)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eviction rule sets")
	}
	evictionRules, err := s.repo.ListEvictionRules(ctx, setIDs(evictionSets))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eviction rules")
	}
	evictionBySet := make(map[string][]models.EvictionRule)
	for _, rule := range evictionRules {
		evictionBySet[rule.RuleSetID] = append(evictionBySet[rule.RuleSetID], rule)
	}
	for _, set := range evictionSets {
		byFrom := map[string]schedule.EvictionRule{}
		for _, rule := range evictionBySet[set.ID] {
			from := schedule.NormalizeKey(rule.FromKey)
			entry, ok := byFrom[from]
			if !ok {
				entry = schedule.EvictionRule{Allowed: map[string]struct{}{}, Denied: map[string]struct{}{}}
			}
			target := schedule.NormalizeKey(rule.TargetKey)
			if rule.Denied {
				entry.Denied[target] = struct{}{}
			} else {
				entry.Allowed[target] = struct{}{}
			}
			byFrom[from] = entry
		}
		for _, line := range set.Lines {
			if snapshot.Eviction[line] == nil {
				snapshot.Eviction[line] = map[string]schedule.EvictionRule{}
			}
			for from, rule := range byFrom {
				snapshot.Eviction[line][from] = rule
			}
		}
	}

	normsSets, err := s.repo.ListRuleSets(ctx, models.RuleSetKindNorms)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list norms rule sets")
	}
	norms, err := s.repo.ListTransitionNorms(ctx, setIDs(normsSets))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transition norms")
	}
	for _, norm := range norms {
		event := schedule.TransitionType(strings.ToUpper(strings.TrimSpace(norm.Event)))
		if !event.Valid() {
			s.logger.Warn("skipping norm row with unknown event", zap.String("event", norm.Event), zap.String("line", norm.Line))
			continue
		}
		if snapshot.Norms[norm.Line] == nil {
			snapshot.Norms[norm.Line] = map[schedule.TransitionType]int{}
		}
		snapshot.Norms[norm.Line][event] = norm.Minutes
	}

	policies, err := s.repo.ListAutoCleanPolicies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list auto clean policies")
	}
	for _, policy := range policies {
		snapshot.AutoClean[policy.Line] = schedule.AutoCleanPolicy{
			Enabled:          policy.Enabled,
			Mode:             schedule.UnitMode(strings.ToLower(strings.TrimSpace(policy.Mode))),
			VolumeThreshold:  policy.VolumeThreshold,
			ProductThreshold: policy.ProductThreshold,
			MinRemainder:     policy.MinRemainder,
			Level:            schedule.TransitionType(policy.CIPLevel),
		}
	}

	densities, err := s.repo.ListDensities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list densities")
	}
	for _, density := range densities {
		snapshot.Density[schedule.NormalizeKey(density.ProductType)] = density.KgPerLitre
	}

	links, err := s.repo.ListLineLinks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list line links")
	}
	for _, link := range links {
		snapshot.Links[link.TargetLine] = link.SourceLine
	}

	return snapshot, nil
}

func (s *RulesService) loadCIP(ctx context.Context) ([]models.RuleSet, []models.CIPRule, []models.CIPException, error) {
	sets, err := s.repo.ListRuleSets(ctx, models.RuleSetKindCIP)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cip rule sets")
	}
	rules, err := s.repo.ListCIPRules(ctx, setIDs(sets))
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cip rules")
	}
	ruleIDs := make([]string, 0, len(rules))
	for _, rule := range rules {
		ruleIDs = append(ruleIDs, rule.ID)
	}
	exceptions, err := s.repo.ListCIPExceptions(ctx, ruleIDs)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cip exceptions")
	}
	return sets, rules, exceptions, nil
}

// ensureLinesFree rejects the replacement when one of the lines already
// belongs to a different set of the same kind.
func (s *RulesService) ensureLinesFree(ctx context.Context, kind models.RuleSetKind, name string, lines []string) error {
	sets, err := s.repo.ListRuleSets(ctx, kind)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rule sets")
	}
	owned := map[string]string{}
	for _, set := range sets {
		if set.Name == name {
			continue
		}
		for _, line := range set.Lines {
			owned[line] = set.Name
		}
	}
	for _, line := range lines {
		if other, ok := owned[line]; ok {
			return appErrors.Clone(appErrors.ErrLineRuleSetConflict, fmt.Sprintf("line %q already belongs to rule set %q", line, other))
		}
	}
	return nil
}

func (s *RulesService) invalidateSnapshot(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "rules:*")
}

func setIDs(sets []models.RuleSet) []string {
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		ids = append(ids, set.ID)
	}
	return ids
}
