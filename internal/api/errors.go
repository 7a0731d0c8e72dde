package api

import (
	"encoding/json"
	"net/http"

	"github.com/gamebattle/arena/internal/arenaerr"
)

// decodeJSON decodes the request body into v, folding a malformed body into
// arenaerr.InvalidInput so handlers don't each repeat the same mapping.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return arenaerr.New(arenaerr.InvalidInput, "malformed request body")
	}
	return nil
}

// statusFor maps arenaerr.Kind to the HTTP status spec §7 assigns it.
// Everything else (a bare Go error from a collaborator) is a 500 — the API
// adapter never tries to guess intent from an untagged error.
func statusFor(err error) int {
	e, ok := err.(*arenaerr.Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case arenaerr.NotFound:
		return http.StatusNotFound
	case arenaerr.AuthRequired, arenaerr.AuthInvalid:
		return http.StatusUnauthorized
	case arenaerr.Forbidden, arenaerr.CompetitionDisabled:
		return http.StatusForbidden
	case arenaerr.InvalidInput, arenaerr.Gamebattle, arenaerr.NoGamesAvailable:
		return http.StatusBadRequest
	case arenaerr.QuotaExceeded, arenaerr.CapacityExceeded:
		return http.StatusBadRequest
	case arenaerr.RuntimeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
