package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	r.GET("/units/:id", handlers...)
	return r
}

func doRequest(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/units/u-1", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

var tokens = stubValidator{claims: map[string]*models.JWTClaims{
	"admin":  {UserID: "u-admin", Role: models.RoleAdmin},
	"viewer": {UserID: "u-viewer", Role: models.RoleViewer},
}}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newTestRouter(JWT(tokens))

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = doRequest(r, "bogus")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/units/u-1", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-admin", w.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	r := newTestRouter(OptionalJWT(tokens))

	assert.Equal(t, "anonymous", doRequest(r, "").Body.String())
	assert.Equal(t, "anonymous", doRequest(r, "bogus").Body.String())
	assert.Equal(t, "u-viewer", doRequest(r, "viewer").Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newTestRouter(JWT(tokens), RequireRoles(models.RoleAdmin, models.RoleScheduler))

	assert.Equal(t, http.StatusOK, doRequest(r, "admin").Code)

	w := doRequest(r, "viewer")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRBACWithoutClaims(t *testing.T) {
	r := newTestRouter(RBAC(string(models.RoleAdmin)))
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newTestRouter(Metrics(metrics))

	doRequest(r, "")
	doRequest(r, "")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
}
