package catalogue

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gamebattle/arena/internal/arenaerr"
)

const (
	maxFileSize  = 128 * 1024
	maxTeamFiles = 64
)

type gameIndex struct {
	Name           string `yaml:"name"`
	TeamID         string `yaml:"team_id"`
	EntrypointFile string `yaml:"entrypoint_file"`
}

// Launcher is the game metadata catalogue and file intake gate (spec §4.6,
// component C6). Grounded on the reference implementation's Launcher
// (scan-folder-for-index-files), generalized from Docker-context generation
// to the Builder collaborator interface so image construction stays out of
// scope.
type Launcher struct {
	mu       sync.RWMutex
	gamesDir string
	games    map[string]GameMeta
	builder  Builder
	logger   *slog.Logger
}

// NewLauncher creates a Launcher rooted at gamesDir. builder may be nil, in
// which case Start and BuildGame skip the image build step.
func NewLauncher(gamesDir string, builder Builder, logger *slog.Logger) *Launcher {
	return &Launcher{
		gamesDir: gamesDir,
		games:    make(map[string]GameMeta),
		builder:  builder,
		logger:   logger,
	}
}

// Start scans gamesDir for "*.yaml" metadata files, builds each game's image
// via the Builder collaborator, and populates the catalogue.
func (l *Launcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(l.gamesDir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("games directory does not exist, starting with an empty catalogue", "dir", l.gamesDir)
			return nil
		}
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "read games directory %s", l.gamesDir)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(l.gamesDir, entry.Name())
		meta, err := l.readIndex(path)
		if err != nil {
			l.logger.Error("skipping malformed game index", "path", path, "error", err)
			continue
		}

		files, err := l.ListFiles(meta.TeamID)
		if err != nil {
			l.logger.Error("failed to read files for game", "team_id", meta.TeamID, "error", err)
			continue
		}

		if l.builder != nil {
			if err := l.builder.Build(ctx, meta, files); err != nil {
				l.logger.Error("failed to build game image", "team_id", meta.TeamID, "error", err)
				continue
			}
		}

		l.mu.Lock()
		l.games[meta.TeamID] = meta
		l.mu.Unlock()
	}
	return nil
}

func (l *Launcher) readIndex(path string) (GameMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameMeta{}, err
	}
	var idx gameIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return GameMeta{}, err
	}
	return GameMeta{Name: idx.Name, TeamID: idx.TeamID, EntrypointFile: idx.EntrypointFile}, nil
}

func (l *Launcher) indexPath(teamID string) string {
	return filepath.Join(l.gamesDir, teamID+".yaml")
}

func (l *Launcher) teamDir(teamID string) string {
	return filepath.Join(l.gamesDir, teamID)
}

// BuildGame validates meta.EntrypointFile against the strict filename rule,
// persists the metadata file, delegates image construction to Builder, and
// upserts the catalogue entry (replacing any prior entry with the same
// TeamID).
func (l *Launcher) BuildGame(ctx context.Context, meta GameMeta) error {
	if err := ValidatePath(meta.EntrypointFile, true); err != nil {
		return err
	}
	if meta.TeamID == "" {
		return arenaerr.New(arenaerr.InvalidInput, "team_id must not be empty")
	}

	idx := gameIndex{Name: meta.Name, TeamID: meta.TeamID, EntrypointFile: meta.EntrypointFile}
	data, err := yaml.Marshal(idx)
	if err != nil {
		return arenaerr.Wrap(arenaerr.InvalidInput, err, "marshal game index for %s", meta.TeamID)
	}
	if err := os.MkdirAll(l.gamesDir, 0o755); err != nil {
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "create games directory")
	}
	if err := os.WriteFile(l.indexPath(meta.TeamID), data, 0o644); err != nil {
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "persist game index for %s", meta.TeamID)
	}

	if l.builder != nil {
		files, err := l.ListFiles(meta.TeamID)
		if err != nil {
			return err
		}
		if err := l.builder.Build(ctx, meta, files); err != nil {
			return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "build image for %s", meta.TeamID)
		}
	}

	l.mu.Lock()
	l.games[meta.TeamID] = meta
	l.mu.Unlock()
	return nil
}

// Get returns the catalogue entry for teamID, if any.
func (l *Launcher) Get(teamID string) (GameMeta, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	meta, ok := l.games[teamID]
	return meta, ok
}

// Contains reports whether teamID has a catalogue entry.
func (l *Launcher) Contains(teamID string) bool {
	_, ok := l.Get(teamID)
	return ok
}

// All returns a snapshot of every catalogue entry.
func (l *Launcher) All() []GameMeta {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]GameMeta, 0, len(l.games))
	for _, meta := range l.games {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// AddFile writes a team's uploaded file, enforcing the per-file size cap
// (128 KiB), the per-team file count cap (64), and the non-strict filename
// component rule (spec §4.6, Invariant 9).
func (l *Launcher) AddFile(teamID string, data []byte, name string) error {
	if len(data) > maxFileSize {
		return arenaerr.New(arenaerr.InvalidInput, "file %s is %d bytes, max is %d", name, len(data), maxFileSize)
	}
	if err := ValidatePath(name, false); err != nil {
		return err
	}

	existing, err := l.ListFiles(teamID)
	if err != nil {
		return err
	}
	if _, replacing := existing[name]; !replacing && len(existing) >= maxTeamFiles {
		return arenaerr.New(arenaerr.InvalidInput, "team %s already has %d files, max is %d", teamID, len(existing), maxTeamFiles)
	}

	fullPath := filepath.Join(l.teamDir(teamID), filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "create directory for %s", name)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "write file %s", name)
	}
	return nil
}

// RemoveFile deletes a team's uploaded file and purges any now-empty
// ancestor directories up to (but not including) the team directory.
func (l *Launcher) RemoveFile(teamID string, name string) error {
	if err := ValidatePath(name, false); err != nil {
		return err
	}
	root := l.teamDir(teamID)
	fullPath := filepath.Join(root, filepath.FromSlash(name))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return arenaerr.New(arenaerr.NotFound, "file %s not found for team %s", name, teamID)
		}
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "remove file %s", name)
	}

	dir := filepath.Dir(fullPath)
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// ListFiles returns every file under the team's directory, keyed by its
// '/'-joined path relative to that directory.
func (l *Launcher) ListFiles(teamID string) (map[string][]byte, error) {
	root := l.teamDir(teamID)
	files := make(map[string][]byte)

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "stat team directory %s", teamID)
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "list files for team %s", teamID)
	}
	return files, nil
}

// LoadTeams reads teams from a YAML file at path. It is a plain function used
// in place of a TeamRosterLoader, not an implementation of that interface;
// spec §6 explicitly excludes any network-backed roster source.
func LoadTeams(path string) ([]Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "read teams file %s", path)
	}

	var raw []struct {
		TeamID       string   `yaml:"team_id"`
		DisplayName  string   `yaml:"display_name"`
		MemberEmails []string `yaml:"member_emails"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, arenaerr.Wrap(arenaerr.InvalidInput, err, "parse teams file %s", path)
	}

	teams := make([]Team, 0, len(raw))
	for _, r := range raw {
		seen := make(map[string]struct{}, len(r.MemberEmails))
		normalized := make([]string, 0, len(r.MemberEmails))
		for _, e := range r.MemberEmails {
			n := NormalizeEmail(e)
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			normalized = append(normalized, n)
		}
		teams = append(teams, Team{TeamID: r.TeamID, DisplayName: r.DisplayName, MemberEmails: normalized})
	}
	return teams, nil
}
