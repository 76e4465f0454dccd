package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wolontariat/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "a-very-long-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateJWTToken(testSecret, userID, "Test", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	enforcer, err := NewEnforcer(zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	authed := r.Group("/", AuthMiddleware(testSecret))
	authed.POST("/offers", RBACMiddleware(enforcer, zap.NewNop(), ResourceOffer, ActionCreate), func(c *gin.Context) {
		c.String(http.StatusCreated, c.GetString(ContextUserID))
	})
	authed.GET("/volunteers/:id/applications", SelfOnly("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/offers", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/offers", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/offers", "Bearer nope").Code)

	w := do(r, http.MethodPost, "/offers?token="+token(t, "org-1", utils.RoleOrganization), "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "org-1", w.Body.String())
}

func TestRBACMiddleware(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		role string
		want int
	}{
		{utils.RoleOrganization, http.StatusCreated},
		{RoleAdmin, http.StatusCreated},
		{utils.RoleVolunteer, http.StatusForbidden},
		{utils.RoleTracker, http.StatusForbidden},
	}
	for _, tt := range tests {
		w := do(r, http.MethodPost, "/offers", "Bearer "+token(t, "u1", tt.role))
		assert.Equal(t, tt.want, w.Code, tt.role)
	}
}

func TestSelfOnly(t *testing.T) {
	r := newRouter(t)
	auth := "Bearer " + token(t, "v1", utils.RoleVolunteer)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/volunteers/v1/applications", auth).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/volunteers/v2/applications", auth).Code)
}

func TestDefaultPoliciesAreIdempotent(t *testing.T) {
	enforcer, err := NewEnforcer(zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, ensureDefaultPolicies(enforcer, zap.NewNop()))

	assert.Len(t, enforcer.GetModel()["p"]["p"].Policy, len(defaultPolicies))
	assert.Len(t, enforcer.GetModel()["g"]["g"].Policy, len(defaultRoles))

	ok, err := enforcer.Enforce(utils.RoleTracker, ResourceStats, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
}
