package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/service"
)

// ErrorResponse is the body of every non-result error
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// resultStatus maps a mutation result to its HTTP status
func resultStatus(res service.Result) int {
	if res.Success {
		return http.StatusOK
	}
	if res.Error == nil {
		return http.StatusInternalServerError
	}
	switch res.Error.Kind {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthenticationMissing:
		return http.StatusUnauthorized
	case domain.KindAuthorizationDenied:
		return http.StatusForbidden
	case domain.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeResult(w http.ResponseWriter, res service.Result) {
	writeJSON(w, resultStatus(res), res)
}

// writeViewError renders a failure loading a view the gate already admitted.
// Upstream detail is logged, not returned.
func writeViewError(w http.ResponseWriter, log *slog.Logger, view string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	log.Error("failed to load view",
		slog.String("view", view),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "something went wrong, try again"})
}
