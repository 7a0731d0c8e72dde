package api

import (
	"io"
	"net/http"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/catalogue"
)

// addFile uploads one file to the caller's team directory (spec §4.6). The
// filename comes from a query parameter since this is a raw-body upload, not
// a multipart form — matching the rest of this surface's plain-JSON/plain-body
// style rather than introducing multipart handling for a single endpoint.
func (s *Server) addFile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, arenaerr.New(arenaerr.InvalidInput, "name query parameter is required"))
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, arenaerr.New(arenaerr.InvalidInput, "could not read request body"))
		return
	}

	if err := s.catalogue.AddFile(teamID, data, name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeFile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)
	path := r.PathValue("path")

	if err := s.catalogue.RemoveFile(teamID, path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)

	files, err := s.catalogue.ListFiles(teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) getGameMeta(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)

	meta, ok := s.catalogue.Get(teamID)
	if !ok {
		writeError(w, arenaerr.New(arenaerr.NotFound, "team %s has no game", teamID))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

type buildGameRequest struct {
	Name           string `json:"name"`
	EntrypointFile string `json:"entrypoint_file"`
}

func (s *Server) buildGame(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	teamID := s.teamIDFor(claims.Email)
	if teamID == "" {
		writeError(w, arenaerr.New(arenaerr.InvalidInput, "caller has no team"))
		return
	}

	var req buildGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	meta := catalogue.GameMeta{Name: req.Name, TeamID: teamID, EntrypointFile: req.EntrypointFile}
	if err := s.catalogue.BuildGame(r.Context(), meta); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
