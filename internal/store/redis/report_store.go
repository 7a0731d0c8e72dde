package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gamebattle/arena/internal/elo"
)

const excludedGamesKey = "excluded_games"

func reportKey(teamID string) string { return "report:" + teamID }

// ReportStore is a Redis-backed store.ReportStore.
type ReportStore struct {
	rdb *redis.Client
}

// NewReportStore wraps an existing Redis client.
func NewReportStore(rdb *redis.Client) *ReportStore {
	return &ReportStore{rdb: rdb}
}

type wireReport struct {
	Session     string `json:"session"`
	ShortReason string `json:"short_reason"`
	Reason      string `json:"reason"`
	Output      []byte `json:"output"`
	Author      string `json:"author"`
}

func (s *ReportStore) Get(ctx context.Context, teamID string) ([]elo.Report, error) {
	raw, err := s.rdb.LRange(ctx, reportKey(teamID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]elo.Report, 0, len(raw))
	for _, item := range raw {
		var w wireReport
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			return nil, fmt.Errorf("decode report for %s: %w", teamID, err)
		}
		r, err := w.toReport()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ReportStore) Append(ctx context.Context, teamID string, report elo.Report) (int, error) {
	w := wireReport{
		Session:     report.SessionID.String(),
		ShortReason: report.ShortReason,
		Reason:      report.Reason,
		Output:      report.Output,
		Author:      report.Author,
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return 0, err
	}
	n, err := s.rdb.RPush(ctx, reportKey(teamID), payload).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *ReportStore) Delete(ctx context.Context, teamID string) error {
	return s.rdb.Del(ctx, reportKey(teamID)).Err()
}

func (s *ReportStore) Exclude(ctx context.Context, teamID string) error {
	return s.rdb.SAdd(ctx, excludedGamesKey, teamID).Err()
}

func (s *ReportStore) Include(ctx context.Context, teamID string) error {
	return s.rdb.SRem(ctx, excludedGamesKey, teamID).Err()
}

func (s *ReportStore) IsExcluded(ctx context.Context, teamID string) (bool, error) {
	return s.rdb.SIsMember(ctx, excludedGamesKey, teamID).Result()
}

func (s *ReportStore) ExcludedGames(ctx context.Context) (map[string]struct{}, error) {
	members, err := s.rdb.SMembers(ctx, excludedGamesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out, nil
}

func (w wireReport) toReport() (elo.Report, error) {
	var sessionID uuid.UUID
	if w.Session != "" {
		id, err := uuid.Parse(w.Session)
		if err != nil {
			return elo.Report{}, fmt.Errorf("decode report session id %q: %w", w.Session, err)
		}
		sessionID = id
	}
	return elo.Report{
		SessionID:   sessionID,
		ShortReason: w.ShortReason,
		Reason:      w.Reason,
		Output:      w.Output,
		Author:      w.Author,
	}, nil
}
