package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/matching"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/scoring"
	"github.com/yungbote/creator-onboarding-backend/internal/observability"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/ctxutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/dbctx"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/keylock"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/sanitize"
)

type OnboardingConfig struct {
	CulturalPassThreshold float64
	SkillPassThreshold    float64
	// StageBudget is the latency above which a completed operation raises a performance alert.
	StageBudget time.Duration
	LockTimeout time.Duration
}

func DefaultOnboardingConfig() OnboardingConfig {
	return OnboardingConfig{
		CulturalPassThreshold: 50,
		SkillPassThreshold:    30,
		StageBudget:           5 * time.Second,
		LockTimeout:           5 * time.Second,
	}
}

// Readiness weights per gate stage; they sum to 100.
var readinessWeights = map[types.Stage]float64{
	types.StagePortfolioSubmission:   20,
	types.StageCulturalAlignment:     20,
	types.StageSkillAssessment:       25,
	types.StageAgentPotentialMapping: 15,
	types.StageAcademyIntegration:    20,
}

// AgentMatcher is satisfied by *matching.Matcher.
type AgentMatcher interface {
	FindBestMatches(ctx context.Context, req matching.MatchRequest) ([]types.AgentMatch, error)
}

// AgentMatchSink receives the final match list for a creator. Failures are logged only.
type AgentMatchSink interface {
	UpsertMatches(ctx context.Context, profileID uuid.UUID, stage types.Stage, matches []types.AgentMatch) error
}

type InitiateInput struct {
	UserID             string `json:"userId"`
	ReferralSource     string `json:"referralSource"`
	CulturalMotivation string `json:"culturalMotivation"`
}

// StageResult is returned by every stage operation. Soft gate failures have Success=false
// with guidance and are not errors.
type StageResult struct {
	Success            bool                             `json:"success"`
	ProfileID          uuid.UUID                        `json:"profileId"`
	NextStage          types.Stage                      `json:"nextStage,omitempty"`
	Replayed           bool                             `json:"replayed,omitempty"`
	Error              string                           `json:"error,omitempty"`
	CulturalGuidance   string                           `json:"culturalGuidance,omitempty"`
	SupportResources   []string                         `json:"supportResources,omitempty"`
	Score              *float64                         `json:"score,omitempty"`
	ReadinessScore     float64                          `json:"readinessScore"`
	PortfolioAnalysis  *types.PortfolioAnalysis         `json:"portfolioAnalysis,omitempty"`
	CulturalAssessment []types.CulturalAssessmentResult `json:"culturalAssessment,omitempty"`
	SkillAssessment    *types.SkillAssessment           `json:"skillAssessment,omitempty"`
	AgentMatches       []types.AgentMatch               `json:"agentMatches,omitempty"`
}

type OnboardingService interface {
	InitiateOnboarding(ctx context.Context, in InitiateInput) (*types.CreatorProfile, error)
	ProcessPortfolioSubmission(ctx context.Context, profileID uuid.UUID, in PortfolioSubmission) (*StageResult, error)
	ProcessCulturalAlignment(ctx context.Context, profileID uuid.UUID, in CulturalAlignmentInput) (*StageResult, error)
	ProcessSkillAssessment(ctx context.Context, profileID uuid.UUID, in SkillAssessmentInput) (*StageResult, error)
	ProcessAgentPotentialMapping(ctx context.Context, profileID uuid.UUID, in AgentMappingInput) (*StageResult, error)
	ProcessAcademyIntegration(ctx context.Context, profileID uuid.UUID, in AcademyIntegrationInput) (*StageResult, error)
	CompleteOnboarding(ctx context.Context, profileID uuid.UUID, in CompletionInput) (*StageResult, error)
	GetProfile(ctx context.Context, profileID uuid.UUID) (*types.CreatorProfile, error)
	GetProfileByUser(ctx context.Context, userID string) (*types.CreatorProfile, error)
	StageHistory(ctx context.Context, profileID uuid.UUID) ([]*types.StageTransition, error)
	FindMatches(ctx context.Context, req matching.MatchRequest) ([]types.AgentMatch, error)
}

type OnboardingDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Profiles    repos.CreatorProfileRepo
	Transitions repos.StageTransitionRepo
	Telemetry   TelemetryService
	Scorer      scoring.Strategy
	Matcher     AgentMatcher
	Gate        featureflag.Gate
	Locker      keylock.Locker
	Limiter     *Limiter
	MatchSink   AgentMatchSink
	Metrics     *observability.Metrics
	Config      OnboardingConfig
}

type onboardingService struct {
	db          *gorm.DB
	log         *logger.Logger
	profiles    repos.CreatorProfileRepo
	transitions repos.StageTransitionRepo
	telemetry   TelemetryService
	scorer      scoring.Strategy
	matcher     AgentMatcher
	gate        featureflag.Gate
	locker      keylock.Locker
	limiter     *Limiter
	matchSink   AgentMatchSink
	prom        *observability.Metrics
	cfg         OnboardingConfig
}

func NewOnboardingService(deps OnboardingDeps) OnboardingService {
	cfg := deps.Config
	def := DefaultOnboardingConfig()
	if cfg.CulturalPassThreshold <= 0 {
		cfg.CulturalPassThreshold = def.CulturalPassThreshold
	}
	if cfg.SkillPassThreshold <= 0 {
		cfg.SkillPassThreshold = def.SkillPassThreshold
	}
	if cfg.StageBudget <= 0 {
		cfg.StageBudget = def.StageBudget
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = def.LockTimeout
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = scoring.NewHeuristic()
	}
	gate := deps.Gate
	if gate == nil {
		gate = featureflag.NewStatic(featureflag.Defaults())
	}
	locker := deps.Locker
	if locker == nil {
		locker = keylock.NewLocal()
	}
	return &onboardingService{
		db:          deps.DB,
		log:         deps.Log.With("service", "OnboardingService"),
		profiles:    deps.Profiles,
		transitions: deps.Transitions,
		telemetry:   deps.Telemetry,
		scorer:      scorer,
		matcher:     deps.Matcher,
		gate:        gate,
		locker:      locker,
		limiter:     deps.Limiter,
		matchSink:   deps.MatchSink,
		prom:        deps.Metrics,
		cfg:         cfg,
	}
}

func (s *onboardingService) InitiateOnboarding(ctx context.Context, in InitiateInput) (*types.CreatorProfile, error) {
	const op = "onboarding.InitiateOnboarding"
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, types.ValidationError(op, "userId is required")
	}
	if !s.gate.IsEnabled(ctx, featureflag.FlagPipeline) {
		return nil, types.FeatureDisabledError(op, "Creator onboarding pipeline")
	}

	release, err := s.limiter.Acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := observability.StartSpan(ctx, op)
	defer span.End()
	start := time.Now()

	unlock, err := s.lockKey(ctx, op, "user:"+userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, repos.MapError(op, err)
	}
	if existing != nil {
		s.prom.ObserveStage("initiation", "replayed", time.Since(start))
		return existing, nil
	}

	meta := types.ProfileMeta{
		ReferralSource:     sanitize.Text(in.ReferralSource),
		CulturalMotivation: sanitize.Text(in.CulturalMotivation),
	}
	profile := &types.CreatorProfile{
		ID:              uuid.New(),
		UserID:          userID,
		OnboardingStage: types.StagePortfolioSubmission,
	}
	if err := profile.EncodeMeta(meta); err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if err := s.profiles.Create(dbc, profile); err != nil {
		if repos.IsUniqueViolation(err) {
			// Another replica created it first.
			again, gerr := s.profiles.GetByUserID(dbc, userID)
			if gerr == nil && again != nil {
				return again, nil
			}
		}
		observability.FailSpan(span, err, "create profile")
		return nil, repos.MapError(op, err)
	}

	span.SetAttributes(attribute.String("onboarding.profile_id", profile.ID.String()))
	s.prom.ObserveStage("initiation", "advanced", time.Since(start))
	s.log.Info("creator onboarding initiated", append([]interface{}{"profile_id", profile.ID, "user_id", userID}, ctxutil.TraceFields(ctx)...)...)
	return profile, nil
}

func (s *onboardingService) GetProfile(ctx context.Context, profileID uuid.UUID) (*types.CreatorProfile, error) {
	const op = "onboarding.GetProfile"
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, profileID)
	if err != nil {
		return nil, repos.MapError(op, err)
	}
	if p == nil {
		return nil, types.NotFoundError(op)
	}
	return p, nil
}

func (s *onboardingService) GetProfileByUser(ctx context.Context, userID string) (*types.CreatorProfile, error) {
	const op = "onboarding.GetProfileByUser"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, types.ValidationError(op, "userId is required")
	}
	p, err := s.profiles.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, repos.MapError(op, err)
	}
	if p == nil {
		return nil, types.NotFoundError(op)
	}
	return p, nil
}

func (s *onboardingService) StageHistory(ctx context.Context, profileID uuid.UUID) ([]*types.StageTransition, error) {
	const op = "onboarding.StageHistory"
	if _, err := s.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	rows, err := s.transitions.ListByProfile(dbctx.Context{Ctx: ctx}, profileID)
	if err != nil {
		return nil, repos.MapError(op, err)
	}
	return rows, nil
}

func (s *onboardingService) FindMatches(ctx context.Context, req matching.MatchRequest) ([]types.AgentMatch, error) {
	const op = "onboarding.FindMatches"
	if s.matcher == nil {
		return []types.AgentMatch{}, types.ServiceUnavailableError(op, "agent matcher", nil)
	}
	req.Preferences.Interests = sanitize.Strings(req.Preferences.Interests)
	req.Preferences.Mediums = sanitize.Strings(req.Preferences.Mediums)
	req.Preferences.CollaborationStyle = sanitize.Text(req.Preferences.CollaborationStyle)
	matches, err := s.matcher.FindBestMatches(ctx, req)
	s.observeMatch(req, matches, err)
	if matches == nil {
		matches = []types.AgentMatch{}
	}
	return matches, err
}

func (s *onboardingService) observeMatch(req matching.MatchRequest, matches []types.AgentMatch, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	economics := len(matches) > 0 && matches[0].HasEconomics()
	s.prom.IncMatchRequest(status, economics)
}

// stageOutcome is what a gate evaluation decides. A nil mutate with advance=false means
// the profile is left untouched.
type stageOutcome struct {
	advance   bool
	score     *float64
	result    StageResult
	mutate    func(p *types.CreatorProfile, meta *types.ProfileMeta)
	telemetry map[string]any
	// afterCommit runs once the write (if any) is durable.
	afterCommit func(ctx context.Context, p *types.CreatorProfile)
}

type stageEval func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error)

// runStage serializes on the profile, applies the acceptance rule for gate and persists the outcome.
func (s *onboardingService) runStage(ctx context.Context, op string, profileID uuid.UUID, gate types.Stage, eval stageEval) (*StageResult, error) {
	if profileID == uuid.Nil {
		return nil, types.ValidationError(op, "profileId is required")
	}
	release, err := s.limiter.Acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("onboarding.profile_id", profileID.String()),
		attribute.String("onboarding.stage", string(gate)),
	)
	defer span.End()
	start := time.Now()

	unlock, err := s.lockKey(ctx, op, "profile:"+profileID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	dbc := dbctx.Context{Ctx: ctx}
	profile, err := s.profiles.GetByID(dbc, profileID)
	if err != nil {
		return nil, repos.MapError(op, err)
	}
	if profile == nil {
		return nil, types.NotFoundError(op)
	}

	current := profile.OnboardingStage
	deferred := false
	switch {
	case current == gate:
	case gate == types.StageCulturalAlignment && current == types.StagePortfolioSubmission:
		// Portfolio review is optional; alignment can be assessed first.
		deferred = true
	case gate.Before(current):
		elapsed := time.Since(start)
		s.prom.ObserveStage(string(gate), "replayed", elapsed)
		s.trackStage(ctx, profile.ID, gate, true, elapsed, map[string]any{
			"replayed":                 true,
			types.MetricReadinessScore: profile.ReadinessScore,
		})
		return &StageResult{
			Success:        true,
			ProfileID:      profile.ID,
			NextStage:      current,
			Replayed:       true,
			ReadinessScore: profile.ReadinessScore,
		}, nil
	default:
		s.trackStage(ctx, profile.ID, gate, false, time.Since(start), map[string]any{"error": "out_of_order", "current_stage": string(current)})
		return nil, types.ValidationError(op, fmt.Sprintf("stage out of order: profile is at %s, %s not reached yet", current, gate))
	}

	meta := profile.DecodeMeta()
	outcome, err := eval(ctx, profile, meta)
	if err != nil {
		observability.FailSpan(span, err, "stage evaluation")
		elapsed := time.Since(start)
		s.prom.ObserveStage(string(gate), "error", elapsed)
		s.trackStage(ctx, profile.ID, gate, false, elapsed, map[string]any{"error": errorCode(err)})
		return nil, err
	}

	res := outcome.result
	res.ProfileID = profile.ID
	res.Success = outcome.advance

	target := current
	var steps []types.StageTransition
	if deferred {
		target = gate
		steps = append(steps, types.StageTransition{ProfileID: profile.ID, FromStage: current, ToStage: gate, Operation: op + ":deferred"})
	}
	if outcome.advance {
		next, ok := gate.Next()
		if !ok {
			return nil, types.ValidationError(op, fmt.Sprintf("stage %s has no successor", gate))
		}
		steps = append(steps, types.StageTransition{ProfileID: profile.ID, FromStage: gate, ToStage: next, Operation: op})
		target = next
	}

	if len(steps) > 0 {
		if outcome.advance && outcome.mutate != nil {
			outcome.mutate(profile, &meta)
		}
		if outcome.advance && outcome.score != nil {
			if meta.StageScores == nil {
				meta.StageScores = map[types.Stage]float64{}
			}
			meta.StageScores[gate] = *outcome.score
		}
		profile.OnboardingStage = target
		profile.ReadinessScore = readinessFrom(meta.StageScores)
		if err := profile.EncodeMeta(meta); err != nil {
			return nil, types.Wrap(types.CodeInternal, op, err)
		}
		if err := s.persist(ctx, profile, steps); err != nil {
			observability.FailSpan(span, err, "persist")
			mapped := repos.MapError(op, err)
			elapsed := time.Since(start)
			s.prom.ObserveStage(string(gate), "error", elapsed)
			s.trackStage(ctx, profile.ID, gate, false, elapsed, map[string]any{"error": errorCode(mapped)})
			return nil, mapped
		}
	}

	res.NextStage = profile.OnboardingStage
	res.ReadinessScore = profile.ReadinessScore
	if outcome.afterCommit != nil {
		outcome.afterCommit(ctx, profile)
	}

	elapsed := time.Since(start)
	outcomeLabel := "failed"
	if outcome.advance {
		outcomeLabel = "advanced"
	}
	s.prom.ObserveStage(string(gate), outcomeLabel, elapsed)
	telemetry := map[string]any{}
	for k, v := range outcome.telemetry {
		telemetry[k] = v
	}
	telemetry[types.MetricReadinessScore] = profile.ReadinessScore
	s.trackStage(ctx, profile.ID, gate, outcome.advance, elapsed, telemetry)

	s.log.Info("stage processed", append([]interface{}{
		"profile_id", profile.ID,
		"stage", gate,
		"success", outcome.advance,
		"next_stage", profile.OnboardingStage,
		"elapsed_ms", elapsed.Milliseconds(),
	}, ctxutil.TraceFields(ctx)...)...)
	return &res, nil
}

func (s *onboardingService) persist(ctx context.Context, profile *types.CreatorProfile, steps []types.StageTransition) error {
	expected := profile.Version
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := s.profiles.UpdateWithVersion(dbc, profile, expected)
		if err != nil {
			return err
		}
		if !ok {
			return repos.ErrStaleVersion
		}
		now := time.Now().UTC()
		for i := range steps {
			step := steps[i]
			step.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
			if err := s.transitions.Create(dbc, &step); err != nil {
				return err
			}
		}
		return nil
	})
}

// trackStage emits the per-call stage metrics. Every call that resolves a profile reports, replays
// and failures included.
func (s *onboardingService) trackStage(ctx context.Context, profileID uuid.UUID, gate types.Stage, success bool, elapsed time.Duration, meta map[string]any) {
	if s.telemetry == nil {
		return
	}
	ms := float64(elapsed.Microseconds()) / 1000
	s.telemetry.TrackStageCompletion(ctx, profileID, gate, success, ms, meta)

	if elapsed > s.cfg.StageBudget {
		s.telemetry.RaiseAlert(ctx, types.PipelineAlert{
			Severity:  types.SeverityMedium,
			Type:      types.AlertPerformance,
			Message:   fmt.Sprintf("stage %s exceeded its %s budget (%s)", gate, s.cfg.StageBudget, elapsed.Round(time.Millisecond)),
			CreatorID: profileID.String(),
			Stage:     string(gate),
			Metadata:  map[string]any{"elapsed_ms": ms, "budget_ms": s.cfg.StageBudget.Milliseconds()},
		})
	}
}

func errorCode(err error) string {
	if code := types.CodeOf(err); code != "" {
		return string(code)
	}
	return string(types.CodeInternal)
}

func (s *onboardingService) lockKey(ctx context.Context, op, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.CodeConflict, op, "another operation for this creator is in progress, retry shortly", err)
	}
	return unlock, nil
}

func readinessFrom(scores map[types.Stage]float64) float64 {
	total := 0.0
	for stage, w := range readinessWeights {
		if v, ok := scores[stage]; ok {
			total += w * clamp(v, 0, 100) / 100
		}
	}
	return round1(clamp(total, 0, 100))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func ptrFloat(v float64) *float64 { return &v }
