package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/http/response"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/matching"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/ctxutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

type OnboardingHandler struct {
	log        *logger.Logger
	onboarding services.OnboardingService
}

func NewOnboardingHandler(log *logger.Logger, onboarding services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{log: log.With("handler", "OnboardingHandler"), onboarding: onboarding}
}

// POST /api/onboarding/initiate
func (h *OnboardingHandler) Initiate(c *gin.Context) {
	var in services.InitiateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if caller := callerID(c); caller != "" {
		if in.UserID == "" {
			in.UserID = caller
		} else if strings.TrimSpace(in.UserID) != caller {
			response.RespondError(c, http.StatusForbidden, "forbidden", errUserMismatch)
			return
		}
	}
	profile, err := h.onboarding.InitiateOnboarding(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "profile": profile, "nextStage": profile.OnboardingStage})
}

// GET /api/onboarding/profiles/:id
func (h *OnboardingHandler) GetProfile(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	profile, ok := h.ownedProfile(c, id)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// GET /api/onboarding/users/:userId/profile
func (h *OnboardingHandler) GetProfileByUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if caller := callerID(c); caller != "" && caller != userID {
		response.RespondError(c, http.StatusForbidden, "forbidden", errUserMismatch)
		return
	}
	profile, err := h.onboarding.GetProfileByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// GET /api/onboarding/profiles/:id/history
func (h *OnboardingHandler) History(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedProfile(c, id); !ok {
		return
	}
	rows, err := h.onboarding.StageHistory(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transitions": rows})
}

// POST /api/onboarding/profiles/:id/portfolio
func (h *OnboardingHandler) SubmitPortfolio(c *gin.Context) {
	var in services.PortfolioSubmission
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.ProcessPortfolioSubmission(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/profiles/:id/cultural-alignment
func (h *OnboardingHandler) CulturalAlignment(c *gin.Context) {
	var in services.CulturalAlignmentInput
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.ProcessCulturalAlignment(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/profiles/:id/skill-assessment
func (h *OnboardingHandler) SkillAssessment(c *gin.Context) {
	var in services.SkillAssessmentInput
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.ProcessSkillAssessment(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/profiles/:id/agent-mapping
func (h *OnboardingHandler) AgentMapping(c *gin.Context) {
	var in services.AgentMappingInput
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.ProcessAgentPotentialMapping(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/profiles/:id/academy
func (h *OnboardingHandler) AcademyIntegration(c *gin.Context) {
	var in services.AcademyIntegrationInput
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.ProcessAcademyIntegration(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/profiles/:id/complete
func (h *OnboardingHandler) Complete(c *gin.Context) {
	var in services.CompletionInput
	h.runStage(c, &in, func(id uuid.UUID) (*services.StageResult, error) {
		return h.onboarding.CompleteOnboarding(c.Request.Context(), id, in)
	})
}

// POST /api/onboarding/matches
func (h *OnboardingHandler) FindMatches(c *gin.Context) {
	var req matching.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	matches, err := h.onboarding.FindMatches(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"matches": matches})
}

// runStage binds the JSON body into in, then calls fn with the path profile id.
func (h *OnboardingHandler) runStage(c *gin.Context, in any, fn func(id uuid.UUID) (*services.StageResult, error)) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedProfile(c, id); !ok {
		return
	}
	if err := c.ShouldBindJSON(in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := fn(id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func profileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// ownedProfile loads the profile and rejects callers other than its creator. Anonymous
// requests pass when auth is optional, as they do for Initiate.
func (h *OnboardingHandler) ownedProfile(c *gin.Context, id uuid.UUID) (*types.CreatorProfile, bool) {
	profile, err := h.onboarding.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return nil, false
	}
	if caller := callerID(c); caller != "" && caller != profile.UserID {
		h.log.Warn("profile access denied", "profile_id", id, "user_id", caller)
		response.RespondError(c, http.StatusForbidden, "forbidden", errProfileNotOwned)
		return nil, false
	}
	return profile, true
}

func callerID(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return strings.TrimSpace(rd.UserID)
	}
	return ""
}

var (
	errUserMismatch    = errors.New("userId does not match the authenticated user")
	errProfileNotOwned = errors.New("profile belongs to another user")
)
