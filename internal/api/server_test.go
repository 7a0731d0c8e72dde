package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/arena"
	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/authn"
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/elo"
	"github.com/gamebattle/arena/internal/runtime"
	"github.com/gamebattle/arena/internal/store/memory"
)

// fakeRuntime satisfies runtime.Runtime with an instantly-running, never-
// producing-output container, enough to exercise SessionManager/Game through
// the HTTP layer without a real PTY/container backend.
type fakeRuntime struct{ n int }

type fakeHandle struct {
	id      string
	running *runtime.RunningFlag
}

func (h *fakeHandle) ID() string    { return h.id }
func (h *fakeHandle) Running() bool { return h.running.Get() }

func (r *fakeRuntime) Create(ctx context.Context, image string, limits runtime.Limits) (runtime.Handle, error) {
	r.n++
	return &fakeHandle{id: image, running: runtime.NewRunningFlag(true)}, nil
}
func (r *fakeRuntime) Attach(ctx context.Context, handle runtime.Handle) (io.Writer, io.Reader, error) {
	pr, pw := io.Pipe()
	go pw.Close()
	return io.Discard, pr, nil
}
func (r *fakeRuntime) Start(ctx context.Context, handle runtime.Handle) error { return nil }
func (r *fakeRuntime) Resize(ctx context.Context, handle runtime.Handle, cols, rows int) error {
	return nil
}
func (r *fakeRuntime) Stop(ctx context.Context, handle runtime.Handle) error {
	handle.(*fakeHandle).running.Set(false)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

const jwtSecret = "test-secret"

func issueToken(t *testing.T, email string, admin bool) string {
	t.Helper()
	claims := jwt.MapClaims{"email": email, "admin": admin}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

// testServer builds a fully wired Server with in-memory stores/fake runtime
// and two catalogue games owned by distinct teams.
func testServer(t *testing.T) (*Server, *arena.SessionManager, *elo.Engine) {
	t.Helper()
	launcher := catalogue.NewLauncher(t.TempDir(), nil, discardLogger())
	require.NoError(t, launcher.BuildGame(context.Background(), catalogue.GameMeta{Name: "Alpha", TeamID: "team-a", EntrypointFile: "main.py"}))
	require.NoError(t, launcher.BuildGame(context.Background(), catalogue.GameMeta{Name: "Beta", TeamID: "team-b", EntrypointFile: "main.py"}))

	reportStore := memory.NewReportStore()
	engine := elo.New(reportStore)
	prefStore := memory.New()
	require.NoError(t, prefStore.Bind(context.Background(), engine))

	sessions := arena.NewSessionManager(&fakeRuntime{}, launcher, 1, time.Hour, runtime.Limits{})

	teams := []catalogue.Team{
		{TeamID: "team-a", DisplayName: "A", MemberEmails: []string{"a@example.com"}},
		{TeamID: "team-b", DisplayName: "B", MemberEmails: []string{"b@example.com"}},
	}

	server := NewServer(Deps{
		Sessions:          sessions,
		Catalogue:         launcher,
		Engine:            engine,
		Prefs:             prefStore,
		Reports:           reportStore,
		Verifier:          authn.NewJWTVerifier(jwtSecret),
		Teams:             teams,
		CompetitionActive: true,
		Logger:            discardLogger(),
		Limits:            runtime.Limits{},
	})
	return server, sessions, engine
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWithAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	server, _, _ := testServer(t)
	h := server.Routes()

	rec := doRequest(t, h, http.MethodGet, "/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/sessions", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor_MapsEveryKindToASpecStatusCode(t *testing.T) {
	cases := map[arenaerr.Kind]int{
		arenaerr.NotFound:            http.StatusNotFound,
		arenaerr.QuotaExceeded:       http.StatusBadRequest,
		arenaerr.CapacityExceeded:    http.StatusBadRequest,
		arenaerr.NoGamesAvailable:    http.StatusBadRequest,
		arenaerr.InvalidInput:        http.StatusBadRequest,
		arenaerr.AuthRequired:        http.StatusUnauthorized,
		arenaerr.AuthInvalid:         http.StatusUnauthorized,
		arenaerr.Forbidden:           http.StatusForbidden,
		arenaerr.RuntimeUnavailable:  http.StatusServiceUnavailable,
		arenaerr.CompetitionDisabled: http.StatusForbidden,
		arenaerr.Gamebattle:          http.StatusBadRequest,
	}
	for kind, want := range cases {
		got := statusFor(arenaerr.New(kind, "boom"))
		assert.Equal(t, want, got, "kind %s", kind)
	}
	assert.Equal(t, http.StatusInternalServerError, statusFor(assertPlainError{}))
}

type assertPlainError struct{}

func (assertPlainError) Error() string { return "plain" }

func TestSessionLifecycle_OwnStrategyAndPreferenceFlow(t *testing.T) {
	server, _, _ := testServer(t)
	h := server.Routes()

	tokenA := issueToken(t, "a@example.com", false)
	tokenNeutral := issueToken(t, "neutral@example.com", false)

	// A's own-strategy session returns exactly their team's game.
	rec := doRequest(t, h, http.MethodPost, "/sessions/own", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	sessionID := resp["session_id"]
	require.NotEmpty(t, sessionID)

	rec = doRequest(t, h, http.MethodGet, "/sessions/"+sessionID, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A neutral voter can't vote on a capacity-1 session (needs two games),
	// and the delete endpoint rejects a non-owner's session lookup as
	// NotFound rather than leaking existence.
	rec = doRequest(t, h, http.MethodDelete, "/sessions/"+sessionID, tokenNeutral, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Leaderboard is public and starts empty of played games (no preferences
	// registered yet), but both catalogue teams sit at the initial rating.
	rec = doRequest(t, h, http.MethodGet, "/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []leaderboardRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, elo.Initial, row.Score)
	}
}

func TestCreateSession_EloPairAssignsTwoDistinctGames(t *testing.T) {
	server, _, _ := testServer(t)
	h := server.Routes()

	tokenNeutral := issueToken(t, "neutral@example.com", false)
	rec := doRequest(t, h, http.MethodPost, "/sessions", tokenNeutral, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	sessionID := resp["session_id"]
	require.NotEmpty(t, sessionID)

	rec = doRequest(t, h, http.MethodGet, "/sessions/"+sessionID, tokenNeutral, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view arena.SessionPublicView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Games, 2)
	assert.NotEqual(t, view.Games[0].Name, view.Games[1].Name)
}
