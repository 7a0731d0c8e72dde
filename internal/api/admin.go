package api

import "net/http"

// adminExclude removes team_id from the leaderboard and matchmaking
// without deleting its rating (spec §3's Exclusion set, §6's admin surface).
func (s *Server) adminExclude(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("team_id")
	if err := s.reports.Exclude(r.Context(), teamID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminInclude(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("team_id")
	if err := s.reports.Include(r.Context(), teamID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminExcludedList(w http.ResponseWriter, r *http.Request) {
	excluded, err := s.reports.ExcludedGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, 0, len(excluded))
	for teamID := range excluded {
		out = append(out, teamID)
	}
	writeJSON(w, http.StatusOK, out)
}

// adminReports lists every report filed against team_id (spec §4.10's
// per-team append-only report list).
func (s *Server) adminReports(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("team_id")
	reports, err := s.reports.Get(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// adminHistory dumps the full preference log, ascending by timestamp (spec
// §4.9's SortedPreferences) — the raw input Invariant 1's replay guarantee
// is defined over, exposed for audit/debugging.
func (s *Server) adminHistory(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.prefs.SortedPreferences(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
