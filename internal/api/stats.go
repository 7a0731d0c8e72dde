package api

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gamebattle/arena/internal/arenaerr"
)

// statsRecord is one team's row in the stats surface (spec §6: "GET
// /stats, /stats/{team_id} (admin), /allstats.csv (admin) -> stats
// records"). The spec names this surface but leaves its shape an
// implementation decision (recorded in DESIGN.md): elo score, play count,
// report count, and exclusion flag are the fields an organizer actually
// needs to adjudicate a competition, and every one of them is already
// exposed individually by EloEngine/ReportStore.
type statsRecord struct {
	TeamID    string  `json:"team_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Runs      int     `json:"runs"`
	Reports   int     `json:"reports"`
	Excluded  bool    `json:"excluded"`
	VoteTotal float64 `json:"vote_total,omitempty"`
}

func (s *Server) statsFor(r *http.Request, teamID string) (statsRecord, error) {
	meta, ok := s.catalogue.Get(teamID)
	if !ok {
		return statsRecord{}, arenaerr.New(arenaerr.NotFound, "no game for team %s", teamID)
	}
	reports, err := s.reports.Get(r.Context(), teamID)
	if err != nil {
		return statsRecord{}, err
	}
	excluded, err := s.reports.IsExcluded(r.Context(), teamID)
	if err != nil {
		return statsRecord{}, err
	}
	return statsRecord{
		TeamID:   teamID,
		Name:     meta.Name,
		Score:    s.engine.Score(teamID),
		Runs:     s.engine.Runs(teamID),
		Reports:  len(reports),
		Excluded: excluded,
	}, nil
}

// ownStats reports the caller's own team's stats plus their personal vote
// accumulation (spec §4.9's AccumulationBy), for a team's own dashboard.
func (s *Server) ownStats(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)

	accumulation, err := s.prefs.AccumulationBy(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	if teamID == "" {
		writeJSON(w, http.StatusOK, statsRecord{VoteTotal: accumulation})
		return
	}

	record, err := s.statsFor(r, teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	record.VoteTotal = accumulation
	writeJSON(w, http.StatusOK, record)
}

// teamStats is the admin view of one specific team's stats.
func (s *Server) teamStats(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("team_id")
	record, err := s.statsFor(r, teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// allStatsCSV dumps every catalogue team's stats as CSV for admin export.
func (s *Server) allStatsCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write([]string{"team_id", "name", "score", "runs", "reports", "excluded"})
	for _, meta := range s.catalogue.All() {
		record, err := s.statsFor(r, meta.TeamID)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = cw.Write([]string{
			record.TeamID,
			record.Name,
			strconv.FormatFloat(record.Score, 'f', 1, 64),
			strconv.Itoa(record.Runs),
			strconv.Itoa(record.Reports),
			strconv.FormatBool(record.Excluded),
		})
	}
}
