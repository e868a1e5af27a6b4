package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tokens := tokenStub{
		"admin":   {UserID: "u1", Role: models.RoleAdmin},
		"teacher": {UserID: "u2", Role: models.RoleTeacher},
		"student": {UserID: "u3", Role: models.RoleStudent, StudentID: "HS001"},
	}
	handlers := append([]gin.HandlerFunc{JWT(tokens)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := CurrentClaims(c)
		c.String(http.StatusOK, claims.UserID)
	})
	r.GET("/students/:id/scores", handlers...)
	return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingAndMalformedTokens(t *testing.T) {
	r := newProtectedRouter()

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/HS001/scores", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/HS001/scores", "Token admin").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/HS001/scores", "Bearer nope").Code)

	w := serve(r, "/students/HS001/scores", "bearer admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestRBACRoles(t *testing.T) {
	r := newProtectedRouter(RequireRoles(models.RoleAdmin, models.RoleTeacher))

	assert.Equal(t, http.StatusOK, serve(r, "/students/HS001/scores", "Bearer admin").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/students/HS001/scores", "Bearer teacher").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/students/HS001/scores", "Bearer student").Code)
}

func TestRBACSelfStudent(t *testing.T) {
	r := newProtectedRouter(RBAC(string(models.RoleTeacher), SelfStudent))

	assert.Equal(t, http.StatusOK, serve(r, "/students/HS001/scores", "Bearer student").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/students/HS002/scores", "Bearer student").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/students/HS001/scores", "Bearer admin").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/x", "").Code)
}

type observerStub struct {
	mu    sync.Mutex
	paths []string
	codes []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, method+" "+path)
	o.codes = append(o.codes, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, "/students/HS001", "")
	serve(r, "/missing", "")

	assert.Equal(t, []string{"GET /students/:id", "GET unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.codes)
}
