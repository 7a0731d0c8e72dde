package api

import "net/http"

type leaderboardRow struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// leaderboard is public (spec §6: no auth required).
func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	excluded, err := s.reports.ExcludedGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ratings := s.engine.Top(s.catalogue.All(), excluded)

	out := make([]leaderboardRow, 0, len(ratings))
	for _, rating := range ratings {
		name := rating.TeamID
		if meta, ok := s.catalogue.Get(rating.TeamID); ok {
			name = meta.Name
		}
		out = append(out, leaderboardRow{Name: name, Score: rating.Score})
	}
	writeJSON(w, http.StatusOK, out)
}
