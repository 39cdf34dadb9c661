package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/storage/localstore"
	"github.com/ewellner/daybridge/internal/syncer"
)

// newGoalsRouter wires a goals handler over on-disk stores with a stubbed
// authenticated guest session.
func newGoalsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := storage.NewSelector(localstore.New(t.TempDir()), localstore.New(t.TempDir()))
	controller := syncer.NewController(stores, nil, zap.NewNop())
	handler := NewGoalsHandler(controller, stores)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("uid", "guest-1")
		c.Set("guest", true)
	})
	api := router.Group("/api/goals")
	api.GET("", handler.ListGoals)
	api.POST("", handler.CreateGoal)
	api.PUT("/:id", handler.UpdateGoal)
	api.DELETE("/:id", handler.DeleteGoal)
	api.POST("/:id/increment", handler.IncrementGoal)
	api.POST("/:id/decrement", handler.DecrementGoal)
	api.POST("/:id/subgoals/:subgoalId/toggle", handler.ToggleSubgoal)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createdGoal(t *testing.T, w *httptest.ResponseRecorder) goals.Goal {
	t.Helper()
	var out struct {
		Data goals.Goal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Data
}

func TestGoalLifecycleOverHTTP(t *testing.T) {
	router := newGoalsRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/goals",
		`{"title":"Read 12 books","target":12,"unit":"books","color":"#2d6cdf"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	g := createdGoal(t, w)
	require.NotEmpty(t, g.ID)

	w = doJSON(t, router, http.MethodPost, "/api/goals/"+g.ID+"/increment", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, createdGoal(t, w).Progress)

	w = doJSON(t, router, http.MethodPut, "/api/goals/"+g.ID, `{"title":"Read 20 books","target":20}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := createdGoal(t, w)
	assert.Equal(t, "Read 20 books", updated.Title)
	assert.Equal(t, 20, updated.Target)
	assert.Equal(t, 1, updated.Progress, "progress survives a field update")

	w = doJSON(t, router, http.MethodGet, "/api/goals", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data struct {
			Goals      []goals.Goal `json:"goals"`
			TotalCount int          `json:"total_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Data.TotalCount)

	w = doJSON(t, router, http.MethodDelete, "/api/goals/"+g.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/goals/"+g.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGoalValidation(t *testing.T) {
	router := newGoalsRouter(t)

	// Missing target fails request binding.
	w := doJSON(t, router, http.MethodPost, "/api/goals", `{"title":"No target"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing title fails too.
	w = doJSON(t, router, http.MethodPost, "/api/goals", `{"target":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleSubgoalOverHTTP(t *testing.T) {
	router := newGoalsRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/goals",
		`{"title":"Ship the feature","target":1,"subgoals":[{"title":"Write the design"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	g := createdGoal(t, w)
	require.Len(t, g.Subgoals, 1)
	require.NotEmpty(t, g.Subgoals[0].ID, "subgoal ids are minted server side")

	w = doJSON(t, router, http.MethodPost, "/api/goals/"+g.ID+"/subgoals/"+g.Subgoals[0].ID+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, createdGoal(t, w).Subgoals[0].Completed)

	w = doJSON(t, router, http.MethodPost, "/api/goals/"+g.ID+"/subgoals/nope/toggle", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stores := storage.NewSelector(localstore.New(t.TempDir()), localstore.New(t.TempDir()))
	controller := syncer.NewController(stores, nil, zap.NewNop())
	handler := NewGoalsHandler(controller, stores)

	router := gin.New()
	router.GET("/api/goals", handler.ListGoals)

	w := doJSON(t, router, http.MethodGet, "/api/goals", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
