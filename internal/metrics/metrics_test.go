package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wolontariat/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCountsEvents(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, models.GamificationEvent{Type: models.EventBadgeUnlocked, BadgeID: "pierwszyKrok"}))
	require.NoError(t, m.Publish(ctx, models.GamificationEvent{Type: models.EventBadgeUnlocked, BadgeID: "pierwszyKrok"}))
	require.NoError(t, m.Publish(ctx, models.GamificationEvent{Type: models.EventEnrollmentChanged, State: "fully_joined"}))
	require.NoError(t, m.Publish(ctx, models.GamificationEvent{Type: models.EventRatingAdded}))
	require.NoError(t, m.Publish(ctx, models.GamificationEvent{Type: "unknown"}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.badgeUnlocks.WithLabelValues("pierwszyKrok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollmentChanges.WithLabelValues("fully_joined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ratingsAdded))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/offers/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/offers/abc", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/offers/:id", http.MethodGet, "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "wolontariat_http_requests_total"))
}
