package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/matching"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/scoring"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/sanitize"
)

type PortfolioSubmission struct {
	Items []scoring.PortfolioItem `json:"items"`
}

// CulturalAlignmentInput values are on a 0-10 scale.
type CulturalAlignmentInput struct {
	CollaborationInterest float64 `json:"collaborationInterest"`
	MissionAlignment      float64 `json:"missionAlignment"`
	CommunityImportance   float64 `json:"communityImportance"`
}

type SkillAssessmentInput struct {
	SkillLevels             map[string]float64 `json:"skillLevels"`
	AICuriosity             float64            `json:"aiCuriosity"`
	AIToolUsage             float64            `json:"aiToolUsage"`
	CollaborationPreference string             `json:"collaborationPreference"`
	Mediums                 []string           `json:"mediums"`
	ExperimentationLevel    float64            `json:"experimentationLevel"`
	RecentLearningCount     int                `json:"recentLearningCount"`
}

// AgentMappingInput.SkillLevel is 0-100; zero falls back to the recorded skill score.
type AgentMappingInput struct {
	Interests          []string `json:"interests"`
	Mediums            []string `json:"mediums"`
	CollaborationStyle string   `json:"collaborationStyle"`
	SkillLevel         float64  `json:"skillLevel"`
	EconomicValidation bool     `json:"economicValidation"`
}

// AcademyIntegrationInput values are on a 0-10 scale.
type AcademyIntegrationInput struct {
	CommunityParticipation float64 `json:"communityParticipation"`
	TrainingCompletion     float64 `json:"trainingCompletion"`
	PeerInteraction        float64 `json:"peerInteraction"`
}

type CompletionInput struct {
	SelectedPath        string            `json:"selectedPath"`
	TrainingPreferences map[string]string `json:"trainingPreferences"`
}

const (
	collaborationInterestWeight = 0.40
	missionAlignmentWeight      = 0.35
	communityImportanceWeight   = 0.25
)

// CulturalComposite is the weighted mean of the three 0-10 inputs scaled to 0-100.
func CulturalComposite(in CulturalAlignmentInput) float64 {
	v := clamp(in.CollaborationInterest, 0, 10)*collaborationInterestWeight +
		clamp(in.MissionAlignment, 0, 10)*missionAlignmentWeight +
		clamp(in.CommunityImportance, 0, 10)*communityImportanceWeight
	return round1(v * 10)
}

func (s *onboardingService) ProcessPortfolioSubmission(ctx context.Context, profileID uuid.UUID, in PortfolioSubmission) (*StageResult, error) {
	const op = "onboarding.ProcessPortfolioSubmission"
	if !s.gate.IsEnabled(ctx, featureflag.FlagAssessment) {
		return nil, types.ServiceUnavailableError(op, "Cultural assessment", nil)
	}
	items := sanitizePortfolio(in.Items)

	return s.runStage(ctx, op, profileID, types.StagePortfolioSubmission, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		analysis := s.scorer.AnalyzePortfolio(items)
		score := round1((analysis.TechnicalQuality + analysis.CreativeOriginality + analysis.VolumeConsistency +
			analysis.ProfessionalReadiness + analysis.CulturalResonance) / 5)
		return stageOutcome{
			advance: true,
			score:   ptrFloat(score),
			result:  StageResult{Score: ptrFloat(score), PortfolioAnalysis: &analysis},
			mutate: func(_ *types.CreatorProfile, meta *types.ProfileMeta) {
				meta.PortfolioAnalysis = &analysis
			},
			telemetry: map[string]any{"portfolio_items": len(items), "portfolio_score": score},
		}, nil
	})
}

func (s *onboardingService) ProcessCulturalAlignment(ctx context.Context, profileID uuid.UUID, in CulturalAlignmentInput) (*StageResult, error) {
	const op = "onboarding.ProcessCulturalAlignment"
	composite := CulturalComposite(in)
	threshold := s.cfg.CulturalPassThreshold

	return s.runStage(ctx, op, profileID, types.StageCulturalAlignment, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		out := stageOutcome{
			score:     ptrFloat(composite),
			telemetry: map[string]any{types.MetricCulturalAlignmentScore: composite, "threshold": threshold},
		}
		if composite < threshold {
			out.result = StageResult{
				Score:            ptrFloat(composite),
				CulturalGuidance: culturalFailGuidance(composite, threshold),
				SupportResources: supportCopy(culturalSupportResources),
			}
			return out, nil
		}
		out.advance = true
		out.result = StageResult{
			Score:            ptrFloat(composite),
			CulturalGuidance: culturalPassGuidance(composite),
		}
		out.mutate = func(p *types.CreatorProfile, meta *types.ProfileMeta) {
			p.CulturalAlignment = ptrFloat(composite)
			meta.CulturalInputs = map[string]float64{
				"collaborationInterest": clamp(in.CollaborationInterest, 0, 10),
				"missionAlignment":      clamp(in.MissionAlignment, 0, 10),
				"communityImportance":   clamp(in.CommunityImportance, 0, 10),
			}
		}
		return out, nil
	})
}

func (s *onboardingService) ProcessSkillAssessment(ctx context.Context, profileID uuid.UUID, in SkillAssessmentInput) (*StageResult, error) {
	const op = "onboarding.ProcessSkillAssessment"
	if len(in.SkillLevels) == 0 {
		return nil, types.ValidationError(op, "skillLevels is required")
	}
	levels := make(map[string]float64, len(in.SkillLevels))
	for k, v := range in.SkillLevels {
		if k = sanitize.Text(k); k != "" {
			levels[k] = clamp(v, 0, 10)
		}
	}
	if len(levels) == 0 {
		return nil, types.ValidationError(op, "skillLevels has no usable categories")
	}
	data := &scoring.SkillData{
		SkillLevels:             levels,
		AICuriosity:             in.AICuriosity,
		AIToolUsage:             in.AIToolUsage,
		CollaborationPreference: sanitize.Text(in.CollaborationPreference),
		Mediums:                 sanitize.Strings(in.Mediums),
		ExperimentationLevel:    in.ExperimentationLevel,
		RecentLearningCount:     in.RecentLearningCount,
	}
	threshold := s.cfg.SkillPassThreshold

	return s.runStage(ctx, op, profileID, types.StageSkillAssessment, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		assessment, err := s.scorer.AssessSkills(data)
		if err != nil {
			return stageOutcome{}, err
		}
		portfolio := types.PortfolioAnalysis{}
		if meta.PortfolioAnalysis != nil {
			portfolio = *meta.PortfolioAnalysis
		}
		cultural := s.scorer.GenerateCulturalAssessment(portfolio, assessment)
		score := assessment.CurrentLevel

		out := stageOutcome{
			score:     ptrFloat(score),
			telemetry: map[string]any{"skill_score": score, "collaboration_style": string(assessment.CollaborationStyle)},
			result: StageResult{
				Score:              ptrFloat(score),
				SkillAssessment:    &assessment,
				CulturalAssessment: cultural,
			},
		}
		if score < threshold {
			out.result.CulturalGuidance = skillFailGuidance(score, threshold)
			out.result.SupportResources = supportCopy(skillSupportResources)
			return out, nil
		}
		out.advance = true
		out.mutate = func(_ *types.CreatorProfile, meta *types.ProfileMeta) {
			meta.SkillLevels = levels
			meta.SkillAssessment = &assessment
			meta.CulturalAssessment = cultural
		}
		return out, nil
	})
}

func (s *onboardingService) ProcessAgentPotentialMapping(ctx context.Context, profileID uuid.UUID, in AgentMappingInput) (*StageResult, error) {
	const op = "onboarding.ProcessAgentPotentialMapping"
	prefs := matching.Preferences{
		Interests:          sanitize.Strings(in.Interests),
		Mediums:            sanitize.Strings(in.Mediums),
		CollaborationStyle: sanitize.Text(in.CollaborationStyle),
	}

	return s.runStage(ctx, op, profileID, types.StageAgentPotentialMapping, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		req := matching.MatchRequest{
			CreatorID:          p.ID.String(),
			Preferences:        prefs,
			SkillLevel:         in.SkillLevel,
			CulturalAlignment:  p.CulturalAlignment,
			EconomicValidation: in.EconomicValidation,
		}
		if req.SkillLevel <= 0 {
			req.SkillLevel = meta.StageScores[types.StageSkillAssessment]
		}
		if len(req.Preferences.Mediums) == 0 && meta.SkillAssessment != nil {
			req.Preferences.Mediums = meta.SkillAssessment.PreferredMediums
		}
		if req.Preferences.CollaborationStyle == "" && meta.SkillAssessment != nil {
			req.Preferences.CollaborationStyle = string(meta.SkillAssessment.CollaborationStyle)
		}

		var (
			matches []types.AgentMatch
			err     error
		)
		if s.matcher == nil {
			err = types.ServiceUnavailableError(op, "agent matcher", nil)
		} else {
			matches, err = s.safeMatch(ctx, req)
		}
		s.observeMatch(req, matches, err)
		if err != nil {
			s.log.Warn("agent matching failed; returning soft failure", "profile_id", p.ID, "error", err)
			if s.telemetry != nil {
				s.telemetry.RaiseAlert(ctx, types.PipelineAlert{
					Severity:  types.SeverityHigh,
					Type:      types.AlertError,
					Message:   fmt.Sprintf("agent matching failed: %v", err),
					CreatorID: p.ID.String(),
					Stage:     string(types.StageAgentPotentialMapping),
				})
			}
			return stageOutcome{
				telemetry: map[string]any{"matcher_error": err.Error()},
				result: StageResult{
					Error:            err.Error(),
					CulturalGuidance: matcherFailGuidance,
					SupportResources: supportCopy(technicalSupportResources),
				},
			}, nil
		}
		if matches == nil {
			matches = []types.AgentMatch{}
		}

		score := 0.0
		if len(matches) > 0 {
			score = round1(matches[0].Confidence * 100)
		}
		out := stageOutcome{
			advance:   true,
			score:     ptrFloat(score),
			telemetry: map[string]any{"match_count": len(matches), "top_confidence": score},
			result:    StageResult{Score: ptrFloat(score), AgentMatches: matches},
			mutate: func(_ *types.CreatorProfile, meta *types.ProfileMeta) {
				meta.AgentMatches = matches
			},
			afterCommit: func(ctx context.Context, p *types.CreatorProfile) {
				s.trackEconomics(ctx, p, matches)
				if s.matchSink != nil {
					if err := s.matchSink.UpsertMatches(ctx, p.ID, p.OnboardingStage, matches); err != nil {
						s.log.Warn("match graph upsert failed", "profile_id", p.ID, "error", err)
					}
				}
			},
		}
		return out, nil
	})
}

// safeMatch turns a panicking matcher into a service error.
func (s *onboardingService) safeMatch(ctx context.Context, req matching.MatchRequest) (matches []types.AgentMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = types.ServiceUnavailableError("onboarding.ProcessAgentPotentialMapping", "agent matcher", fmt.Errorf("panic: %v", r))
		}
	}()
	return s.matcher.FindBestMatches(ctx, req)
}

func (s *onboardingService) trackEconomics(ctx context.Context, p *types.CreatorProfile, matches []types.AgentMatch) {
	if s.telemetry == nil || len(matches) == 0 {
		return
	}
	top := matches[0]
	if top.MarketAnalysis == nil || top.EconomicViability == nil {
		return
	}
	s.telemetry.TrackEconomicValidation(ctx, p.ID,
		top.MarketAnalysis.RevenueModel,
		top.MarketAnalysis.ProjectedMonthlyRevenue,
		round1(*top.EconomicViability*100),
		map[string]any{"role": top.Role, "confidence": top.Confidence},
	)
}

func (s *onboardingService) ProcessAcademyIntegration(ctx context.Context, profileID uuid.UUID, in AcademyIntegrationInput) (*StageResult, error) {
	const op = "onboarding.ProcessAcademyIntegration"
	academy := map[string]float64{
		"communityParticipation": clamp(in.CommunityParticipation, 0, 10),
		"trainingCompletion":     clamp(in.TrainingCompletion, 0, 10),
		"peerInteraction":        clamp(in.PeerInteraction, 0, 10),
	}
	score := round1((academy["communityParticipation"] + academy["trainingCompletion"] + academy["peerInteraction"]) / 3 * 10)

	return s.runStage(ctx, op, profileID, types.StageAcademyIntegration, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		return stageOutcome{
			advance:   true,
			score:     ptrFloat(score),
			telemetry: map[string]any{"academy_score": score},
			result:    StageResult{Score: ptrFloat(score)},
			mutate: func(_ *types.CreatorProfile, meta *types.ProfileMeta) {
				meta.Academy = academy
			},
		}, nil
	})
}

func (s *onboardingService) CompleteOnboarding(ctx context.Context, profileID uuid.UUID, in CompletionInput) (*StageResult, error) {
	const op = "onboarding.CompleteOnboarding"
	path := sanitize.Text(in.SelectedPath)
	if path == "" {
		return nil, types.ValidationError(op, "selectedPath is required")
	}
	prefs := sanitize.Map(in.TrainingPreferences)

	return s.runStage(ctx, op, profileID, types.StageTrainingPathSelection, func(ctx context.Context, p *types.CreatorProfile, meta types.ProfileMeta) (stageOutcome, error) {
		return stageOutcome{
			advance:   true,
			telemetry: map[string]any{"selected_path": path},
			mutate: func(_ *types.CreatorProfile, meta *types.ProfileMeta) {
				now := time.Now().UTC()
				meta.SelectedPath = path
				meta.TrainingPreferences = prefs
				meta.CompletedAt = &now
			},
		}, nil
	})
}

func sanitizePortfolio(items []scoring.PortfolioItem) []scoring.PortfolioItem {
	out := make([]scoring.PortfolioItem, 0, len(items))
	for _, it := range items {
		it.Title = sanitize.Text(it.Title)
		it.Description = sanitize.Text(it.Description)
		it.Medium = sanitize.Text(it.Medium)
		it.URL = strings.TrimSpace(it.URL)
		it.Tags = sanitize.Strings(it.Tags)
		out = append(out, it)
	}
	return out
}
