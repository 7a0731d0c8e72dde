package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/gamebattle/arena/internal/arena"
	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/authn"
	"github.com/gamebattle/arena/internal/pairing"
)

const defaultCapacity = 2

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	sessions := s.sessions.UserSessions(claims.Email)

	out := make(map[string]arena.SessionPublicView, len(sessions))
	for id, sess := range sessions {
		out[id.String()] = sess.PublicView()
	}
	writeJSON(w, http.StatusOK, out)
}

// reportedAgainst builds the predicate EloPair uses to skip games
// voterEmail has already reported as broken. elo.ReportedAgainst carries no
// context of its own (it mirrors the original's synchronous dict lookup), so
// this uses a background context for the store round-trip.
func (s *Server) reportedAgainst() func(teamID, voterEmail string) bool {
	return func(teamID, voterEmail string) bool {
		reports, err := s.reports.Get(context.Background(), teamID)
		if err != nil {
			return false
		}
		for _, rep := range reports {
			if rep.Author == voterEmail {
				return true
			}
		}
		return false
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)

	excluded, err := s.reports.ExcludedGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	strategy := pairing.EloPair(s.engine, teamID, excluded, s.reportedAgainst())

	id, _, err := s.sessions.Create(r.Context(), claims.Email, strategy, defaultCapacity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id.String()})
}

type createOwnRequest struct {
	GameID string `json:"game_id,omitempty"`
}

func (s *Server) createOwnSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req createOwnRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var strategy pairing.Strategy
	if req.GameID != "" {
		if err := authn.RequireAdmin(claims); err != nil {
			writeError(w, err)
			return
		}
		strategy = pairing.Specified(req.GameID)
	} else {
		teamID := s.teamIDFor(claims.Email)
		strategy = pairing.Own(teamID)
	}

	id, _, err := s.sessions.Create(r.Context(), claims.Email, strategy, 1)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id.String()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, sess.PublicView())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := parseSessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sessions.Stop(r.Context(), id, claims.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restartGame(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, index, err := parseSessionAndGameIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	game, err := s.sessions.GetGame(claims.Email, id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := game.Restart(r.Context(), s.limits); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseSessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.UUID{}, arenaerr.New(arenaerr.NotFound, "invalid session id")
	}
	return id, nil
}

func parseSessionAndGameIndex(r *http.Request) (uuid.UUID, int, error) {
	id, err := parseSessionID(r)
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		return uuid.UUID{}, 0, arenaerr.New(arenaerr.NotFound, "invalid game index")
	}
	return id, n, nil
}
