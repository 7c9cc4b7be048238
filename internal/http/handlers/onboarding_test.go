package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/creator-onboarding-backend/internal/data/repos"
	"github.com/yungbote/creator-onboarding-backend/internal/data/repos/testutil"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/modules/onboarding/matching"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/ctxutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/featureflag"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

type testAPI struct {
	router *gin.Engine
	gate   *featureflag.Static
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	profiles := repos.NewCreatorProfileRepo(db, log)
	metrics := repos.NewPipelineMetricRepo(db, log)
	tel := services.NewTelemetryService(log, metrics, profiles, nil, services.DefaultTelemetryConfig())
	t.Cleanup(func() { _ = tel.Close() })
	gate := featureflag.NewStatic(featureflag.Defaults())

	svc := services.NewOnboardingService(services.OnboardingDeps{
		DB:          db,
		Log:         log,
		Profiles:    profiles,
		Transitions: repos.NewStageTransitionRepo(db, log),
		Telemetry:   tel,
		Matcher:     matching.New(matching.CatalogFromEnv(), nil, gate, log),
		Gate:        gate,
	})
	h := NewOnboardingHandler(log, svc)
	health := NewHealthHandler(tel, nil)

	r := gin.New()
	r.Use(asCaller)
	api := r.Group("/api/onboarding")
	api.POST("/initiate", h.Initiate)
	api.POST("/matches", h.FindMatches)
	api.GET("/health", health.PipelineHealth)
	api.GET("/users/:userId/profile", h.GetProfileByUser)
	p := api.Group("/profiles/:id")
	p.GET("", h.GetProfile)
	p.GET("/history", h.History)
	p.POST("/portfolio", h.SubmitPortfolio)
	p.POST("/cultural-alignment", h.CulturalAlignment)
	p.POST("/skill-assessment", h.SkillAssessment)
	p.POST("/agent-mapping", h.AgentMapping)
	p.POST("/academy", h.AcademyIntegration)
	p.POST("/complete", h.Complete)
	r.GET("/healthcheck", health.HealthCheck)
	return &testAPI{router: r, gate: gate}
}

const callerHeader = "X-Test-User"

// asCaller stands in for the auth middleware: the header value becomes the authenticated user.
func asCaller(c *gin.Context) {
	if user := c.GetHeader(callerHeader); user != "" {
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: user}))
	}
	c.Next()
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return a.doAs(t, "", method, path, body)
}

func (a *testAPI) doAs(t *testing.T, user, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(callerHeader, user)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (a *testAPI) initiate(t *testing.T) string {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/api/onboarding/initiate", gin.H{"userId": "user-" + uuid.NewString()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	profile := body["profile"].(map[string]any)
	return profile["id"].(string)
}

func TestInitiateEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(t, http.MethodPost, "/api/onboarding/initiate", gin.H{"userId": "user-" + uuid.NewString(), "culturalMotivation": "<i>hi</i>"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, string(types.StagePortfolioSubmission), body["nextStage"])

	rec, body = api.do(t, http.MethodPost, "/api/onboarding/initiate", gin.H{"userId": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation", body["error"].(map[string]any)["code"])

	api.gate.Set(featureflag.FlagPipeline, false)
	rec, body = api.do(t, http.MethodPost, "/api/onboarding/initiate", gin.H{"userId": "user-" + uuid.NewString()})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, body["error"].(map[string]any)["message"], "not currently enabled")
}

func TestCulturalAlignmentEndpoint(t *testing.T) {
	api := newTestAPI(t)

	id := api.initiate(t)
	rec, body := api.do(t, http.MethodPost, "/api/onboarding/profiles/"+id+"/cultural-alignment", gin.H{
		"collaborationInterest": 8, "missionAlignment": 7, "communityImportance": 6,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["success"])
	require.Equal(t, string(types.StageSkillAssessment), body["nextStage"])

	fresh := api.initiate(t)
	rec, body = api.do(t, http.MethodPost, "/api/onboarding/profiles/"+fresh+"/cultural-alignment", gin.H{
		"collaborationInterest": 2, "missionAlignment": 3, "communityImportance": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, string(types.StageCulturalAlignment), body["nextStage"])
	require.Contains(t, body["culturalGuidance"], "explore")
	require.NotEmpty(t, body["supportResources"])
}

func TestStageEndpointErrors(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodPost, "/api/onboarding/profiles/not-a-uuid/portfolio", gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := api.do(t, http.MethodPost, "/api/onboarding/profiles/"+uuid.NewString()+"/portfolio", gin.H{"items": []any{}})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, body["error"].(map[string]any)["message"], "profile not found")

	id := api.initiate(t)
	rec, _ = api.do(t, http.MethodPost, "/api/onboarding/profiles/"+id+"/complete", gin.H{"selectedPath": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	api.gate.Set(featureflag.FlagAssessment, false)
	rec, _ = api.do(t, http.MethodPost, "/api/onboarding/profiles/"+id+"/portfolio", gin.H{"items": []any{}})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProfileReadEndpoints(t *testing.T) {
	api := newTestAPI(t)
	id := api.initiate(t)

	rec, body := api.do(t, http.MethodGet, "/api/onboarding/profiles/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := body["profile"].(map[string]any)
	require.Equal(t, id, profile["id"])

	rec, body = api.do(t, http.MethodGet, "/api/onboarding/users/"+profile["user_id"].(string)+"/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, body["profile"].(map[string]any)["id"])

	rec, _ = api.do(t, http.MethodPost, "/api/onboarding/profiles/"+id+"/portfolio", gin.H{"items": []any{}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = api.do(t, http.MethodGet, "/api/onboarding/profiles/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["transitions"], 1)
}

func TestMatchesEndpoint(t *testing.T) {
	api := newTestAPI(t)
	rec, body := api.do(t, http.MethodPost, "/api/onboarding/matches", gin.H{
		"creatorId":          "c-1",
		"preferences":        gin.H{"interests": []string{"music"}},
		"skillLevel":         60,
		"economicValidation": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	matches := body["matches"].([]any)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		_, has := m.(map[string]any)["economicViability"]
		require.False(t, has, "economics gate is off by default")
	}
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodGet, "/healthcheck", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := api.do(t, http.MethodGet, "/api/onboarding/health?range=7d", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "7d", body["timeRange"])
	require.Contains(t, body, "stageDistribution")

	rec, _ = api.do(t, http.MethodGet, "/api/onboarding/health?range=1y", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileEndpointsRejectOtherUsers(t *testing.T) {
	api := newTestAPI(t)
	owner := "user-" + uuid.NewString()
	rec, body := api.doAs(t, owner, http.MethodPost, "/api/onboarding/initiate", gin.H{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["profile"].(map[string]any)["id"].(string)

	cultural := gin.H{"collaborationInterest": 8, "missionAlignment": 7, "communityImportance": 6}
	denied := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/onboarding/profiles/" + id, nil},
		{http.MethodGet, "/api/onboarding/profiles/" + id + "/history", nil},
		{http.MethodGet, "/api/onboarding/users/" + owner + "/profile", nil},
		{http.MethodPost, "/api/onboarding/profiles/" + id + "/cultural-alignment", cultural},
		{http.MethodPost, "/api/onboarding/profiles/" + id + "/portfolio", gin.H{}},
	}
	for _, tc := range denied {
		rec, body := api.doAs(t, "someone-else", tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusForbidden, rec.Code, "%s %s: %s", tc.method, tc.path, rec.Body.String())
		require.Equal(t, "forbidden", body["error"].(map[string]any)["code"])
	}

	// The profile did not move.
	rec, body = api.doAs(t, owner, http.MethodGet, "/api/onboarding/profiles/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(types.StagePortfolioSubmission), body["profile"].(map[string]any)["onboarding_stage"])

	rec, body = api.doAs(t, owner, http.MethodPost, "/api/onboarding/profiles/"+id+"/cultural-alignment", cultural)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, string(types.StageSkillAssessment), body["nextStage"])

	rec, _ = api.doAs(t, owner, http.MethodGet, "/api/onboarding/users/"+owner+"/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
