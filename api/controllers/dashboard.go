package controllers

import (
	"net/http"

	"github.com/mateoherrera/threadline-backend/api/responses"
	"github.com/mateoherrera/threadline-backend/internal/admin"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
	"github.com/mateoherrera/threadline-backend/pkg/logger"
)

// AdminDashboard serves the back-office overview stats.
func AdminDashboard(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		result, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
