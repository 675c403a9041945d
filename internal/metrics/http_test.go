package metrics

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteFamily(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/messages", "messages"},
		{"/api/v1/messages/:id", "messages"},
		{"/api/v1/messages/:id/reactions", "reactions"},
		{"/api/v1/workspaces/:id", "workspaces"},
		{"/api/v1/workspaces/:id/info", "workspaces"},
		{"/api/v1/workspaces/:id/channels", "channels"},
		{"/api/v1/workspaces/:id/members/me", "members"},
		{"/api/v1/workspaces/:id/join-code", "join"},
		{"/api/v1/workspaces/:id/messages/search", "search"},
		{"/api/v1/uploads", "uploads"},
		{"/swagger/*any", "docs"},
		{"/ping", "other"},
		{"", "unmatched"},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteFamily(tt.route))
		})
	}
}

func TestObserveHTTP_FoldsUnmatchedRoutes(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "unmatched", "404"))

	ObserveHTTP("GET", "", "404", 0.001, 10)
	ObserveHTTP("GET", "", "404", 0.001, 10)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "unmatched", "404"))
	assert.Equal(t, before+2, after)
}

func TestHTTPStarted(t *testing.T) {
	base := testutil.ToFloat64(httpInFlight)
	done := HTTPStarted()
	assert.Equal(t, base+1, testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, base, testutil.ToFloat64(httpInFlight))
}

func TestSetDBStats(t *testing.T) {
	SetDBStats(sql.DBStats{OpenConnections: 5, InUse: 2, Idle: 3})

	assert.Equal(t, 5.0, testutil.ToFloat64(dbConnections.WithLabelValues("open")))
	assert.Equal(t, 2.0, testutil.ToFloat64(dbConnections.WithLabelValues("in_use")))
	assert.Equal(t, 3.0, testutil.ToFloat64(dbConnections.WithLabelValues("idle")))
}
