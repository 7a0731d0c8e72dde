package api

import (
	"net/http"
	"time"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/elo"
)

type preferenceRequest struct {
	ScoreFirst float64 `json:"score_first"`
}

// setPreference records the caller's preference between the two games in a
// finished session (spec §6: "requires session.over"). The author_owns_game
// flag threaded into PreferenceStore.Set is computed here, from the team
// roster, since the core has no roster of its own (spec's Open Question
// resolution: author_owns_game is required, not optional).
func (s *Server) setPreference(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := parseSessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.sessions.Get(claims.Email, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !sess.Over() {
		writeError(w, arenaerr.New(arenaerr.Gamebattle, "session is not over yet"))
		return
	}

	var req preferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ScoreFirst < 0 || req.ScoreFirst > 1 {
		writeError(w, arenaerr.New(arenaerr.InvalidInput, "score_first must be in [0,1]"))
		return
	}

	first, err := sess.Game(0)
	if err != nil {
		writeError(w, err)
		return
	}
	second, err := sess.Game(1)
	if err != nil {
		writeError(w, err)
		return
	}

	teamID := s.teamIDFor(claims.Email)
	authorOwnsGame := teamID != "" && (first.Meta().TeamID == teamID || second.Meta().TeamID == teamID)

	pref := elo.Preference{
		Games:      [2]string{first.Meta().TeamID, second.Meta().TeamID},
		FirstScore: req.ScoreFirst,
		Author:     claims.Email,
		Timestamp:  time.Now(),
	}
	if err := s.prefs.Set(r.Context(), id, pref, authorOwnsGame); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportRequest struct {
	ShortReason   string `json:"short_reason"`
	Reason        string `json:"reason"`
	CaptureOutput bool   `json:"capture_output"`
	RestartGame   bool   `json:"restart_game"`
}

func (s *Server) reportGame(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, index, err := parseSessionAndGameIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.sessions.Get(claims.Email, id)
	if err != nil {
		writeError(w, err)
		return
	}
	game, err := sess.Game(index)
	if err != nil {
		writeError(w, err)
		return
	}

	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ShortReason == "" {
		writeError(w, arenaerr.New(arenaerr.InvalidInput, "short_reason is required"))
		return
	}

	var output []byte
	if req.CaptureOutput {
		output = game.AccumulatedOutput()
	}

	meta := game.Meta()
	_, err = s.engine.Report(r.Context(), meta, elo.Report{
		SessionID:   id,
		ShortReason: req.ShortReason,
		Reason:      req.Reason,
		Output:      output,
		Author:      claims.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if req.RestartGame {
		if err := game.Restart(r.Context(), s.limits); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
