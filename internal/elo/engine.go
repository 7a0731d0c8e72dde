package elo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/gamebattle/arena/internal/catalogue"
)

// ReportSink is the subset of ReportStore the engine needs to append reports
// (spec §4.8's Report operation). Defined locally so this package never
// imports internal/store; any store implementation satisfies it structurally.
type ReportSink interface {
	Append(ctx context.Context, teamID string, report Report) (int, error)
}

// Engine holds the process-wide ratings state. Ratings are a pure function
// of the ordered preference log (spec §3); Engine assumes a single writer
// (the PreferenceStore subscription) and many concurrent readers, guarded by
// a mutex per spec §5.
type Engine struct {
	mu          sync.Mutex
	ratings     map[string]float64
	runs        map[string]int
	seenByVoter map[string]map[string]struct{}
	reports     ReportSink
}

// New creates an empty Engine. reports may be nil if Report is never called.
func New(reports ReportSink) *Engine {
	return &Engine{
		ratings:     make(map[string]float64),
		runs:        make(map[string]int),
		seenByVoter: make(map[string]map[string]struct{}),
		reports:     reports,
	}
}

// Register applies one preference to the rating state (spec §4.8). Whether
// or not it counts toward ratings, the pair is always recorded in
// seen_by_voter (Invariant 2).
func (e *Engine) Register(p Preference) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.register(p)
}

func (e *Engine) register(p Preference) {
	a, b := p.Games[0], p.Games[1]

	voterSeen := e.seenByVoter[p.Author]
	if voterSeen == nil {
		voterSeen = make(map[string]struct{})
		e.seenByVoter[p.Author] = voterSeen
	}
	_, seenA := voterSeen[a]
	_, seenB := voterSeen[b]

	counted := !p.AuthorOwnsGame && !seenA && !seenB

	voterSeen[a] = struct{}{}
	voterSeen[b] = struct{}{}

	if !counted {
		return
	}

	if _, ok := e.ratings[a]; !ok {
		e.ratings[a] = Initial
	}
	if _, ok := e.ratings[b]; !ok {
		e.ratings[b] = Initial
	}

	ea := expectedScore(e.ratings[a], e.ratings[b])
	eb := 1 - ea
	e.ratings[a] += K * (p.FirstScore - ea)
	e.ratings[b] += K * ((1 - p.FirstScore) - eb)
	e.runs[a]++
	e.runs[b]++

	e.normalize()
}

// expectedScore is the logistic expected score of `a` against `b`.
func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// normalize shifts every rating so the minimum is 0, preserving relative
// differences, whenever any rating has gone negative (Invariant 4).
func (e *Engine) normalize() {
	min := math.Inf(1)
	for _, v := range e.ratings {
		if v < min {
			min = v
		}
	}
	if min < 0 {
		for k := range e.ratings {
			e.ratings[k] -= min
		}
	}
}

// Replay rebuilds ratings/runs/seen_by_voter from scratch by calling register
// in order (spec §4.8's Replay). It is the only authoritative way to recover
// state after an edit or delete to the preference log (Invariant 1).
func (e *Engine) Replay(prefs []Preference) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ratings = make(map[string]float64)
	e.runs = make(map[string]int)
	e.seenByVoter = make(map[string]map[string]struct{})
	for _, p := range prefs {
		e.register(p)
	}
}

// Score returns team_id's current rating, or Initial if it has never played.
func (e *Engine) Score(teamID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ratingOrInitial(teamID)
}

func (e *Engine) ratingOrInitial(teamID string) float64 {
	if v, ok := e.ratings[teamID]; ok {
		return v
	}
	return Initial
}

// Runs returns the number of counted preferences team_id has played.
func (e *Engine) Runs(teamID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[teamID]
}

// Top returns ratings for team_ids present in cat and not in excluded,
// sorted by score descending (spec §4.8, Invariant 8).
func (e *Engine) Top(cat []catalogue.GameMeta, excluded map[string]struct{}) []Rating {
	e.mu.Lock()
	defer e.mu.Unlock()

	inCatalogue := make(map[string]struct{}, len(cat))
	for _, g := range cat {
		inCatalogue[g.TeamID] = struct{}{}
	}

	out := make([]Rating, 0, len(inCatalogue))
	for teamID := range inCatalogue {
		if _, excl := excluded[teamID]; excl {
			continue
		}
		out = append(out, Rating{TeamID: teamID, Score: e.ratingOrInitial(teamID)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ReportedAgainst reports whether voterEmail has reported teamID, used by
// Pair to exclude games the requester has already flagged as broken.
type ReportedAgainst func(teamID, voterEmail string) bool

type pairScore struct {
	x, y  catalogue.GameMeta
	score float64
}

// Pair chooses the pairing that maximizes information gain (spec §4.8,
// "EloPair"): pairs are ranked descending by |R_x - R_y|/200 - (runs_x +
// runs_y), so fewer combined runs and a wider rating gap both rank a pair
// higher. requesterTeamID may be empty for a requester with no team.
func (e *Engine) Pair(
	cat []catalogue.GameMeta,
	capacity int,
	requesterTeamID string,
	requesterEmail string,
	avoid map[string]struct{},
	excluded map[string]struct{},
	reported ReportedAgainst,
) ([]catalogue.GameMeta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := e.seenByVoter[requesterEmail]

	available := make([]catalogue.GameMeta, 0, len(cat))
	for _, g := range cat {
		if requesterTeamID != "" && g.TeamID == requesterTeamID {
			continue
		}
		if _, skip := avoid[g.TeamID]; skip {
			continue
		}
		if _, skip := excluded[g.TeamID]; skip {
			continue
		}
		if seen != nil {
			if _, skip := seen[g.TeamID]; skip {
				continue
			}
		}
		if reported != nil && reported(g.TeamID, requesterEmail) {
			continue
		}
		available = append(available, g)
	}

	if len(available) < 2 {
		return nil, nil
	}

	pairs := make([]pairScore, 0, len(available)*(len(available)-1))
	for _, x := range available {
		for _, y := range available {
			if x.TeamID == y.TeamID {
				continue
			}
			pairs = append(pairs, pairScore{x: x, y: y, score: e.pairLikelihood(x.TeamID, y.TeamID)})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	result := make([]catalogue.GameMeta, 0, capacity)
	for _, p := range pairs {
		if len(result) >= capacity {
			break
		}
		result = append(result, p.x, p.y)
	}
	if len(result) > capacity {
		result = result[:capacity]
	}
	return result, nil
}

func (e *Engine) pairLikelihood(a, b string) float64 {
	ra := e.ratingOrInitial(a)
	rb := e.ratingOrInitial(b)
	return math.Abs(ra-rb)/200 - float64(e.runs[a]+e.runs[b])
}

// Report appends a report to the bound ReportSink under meta.TeamID,
// returning the new count. Per spec §4.8 there is deliberately no
// self-authorship check here — that policy decision belongs to the API
// Adapter, not the core.
func (e *Engine) Report(ctx context.Context, meta catalogue.GameMeta, report Report) (int, error) {
	return e.reports.Append(ctx, meta.TeamID, report)
}
