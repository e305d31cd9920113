package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/revocation"
	"github.com/aussiebroadwan/passport/internal/idp/store"
	"github.com/aussiebroadwan/passport/pkg/httpx"
)

// ReadyzHandler reports whether the service can actually serve: the
// database must answer and, since revocation fails closed, so must Redis.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	revocations *revocation.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database:   "ok",
			Revocation: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := revocations.Ping(r.Context()); err != nil {
			checks.Revocation = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
