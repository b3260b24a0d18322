package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("/like/{postId}", http.StatusOK)
	m.ObserveRequest("/like/{postId}", http.StatusOK)
	m.Uploads.WithLabelValues("ok").Inc()
	m.Likes.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/like/{postId}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Likes))
}

func TestMetrics_InstancesAreIsolated(t *testing.T) {
	first := New()
	second := New()

	first.Signups.Inc()

	assert.Equal(t, 0.0, testutil.ToFloat64(second.Signups))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Comments.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "comments_total 1")
}
