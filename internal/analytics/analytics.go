package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"medi-plus/internal/storage"
)

// DailyStats summarises one UTC day of interactions.
type DailyStats struct {
	Date           string              `json:"date"`
	TotalTurns     int                 `json:"total_turns"`
	UniqueUsers    int                 `json:"unique_users"`
	UniqueSessions int                 `json:"unique_sessions"`
	Fallbacks      int                 `json:"fallbacks"`
	RuleHits       map[string]int      `json:"rule_hits"`
	UserStats      map[int64]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID    int64 `json:"user_id"`
	Turns     int   `json:"turns"`
	Fallbacks int   `json:"fallbacks"`
}

// AnalyzeDailyLogs counts the events of the day containing targetDate.
// Events without an utterance are ignored.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		RuleHits:  make(map[string]int),
		UserStats: make(map[int64]UserStats),
	}

	users := make(map[int64]struct{})
	sessions := make(map[string]struct{})

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		if strings.TrimSpace(ev.Utterance) == "" {
			continue
		}

		stats.TotalTurns++
		if ev.RuleID != "" {
			stats.RuleHits[ev.RuleID]++
		}
		if ev.Fallback {
			stats.Fallbacks++
		}
		if ev.SessionID != "" {
			sessions[ev.SessionID] = struct{}{}
		}
		if ev.UserID != 0 {
			users[ev.UserID] = struct{}{}
			us := stats.UserStats[ev.UserID]
			us.UserID = ev.UserID
			us.Turns++
			if ev.Fallback {
				us.Fallbacks++
			}
			stats.UserStats[ev.UserID] = us
		}
	}

	stats.UniqueUsers = len(users)
	stats.UniqueSessions = len(sessions)
	return stats
}

// FallbackRate is the share of turns no specific rule recognised.
func (ds *DailyStats) FallbackRate() float64 {
	if ds.TotalTurns == 0 {
		return 0
	}
	return float64(ds.Fallbacks) / float64(ds.TotalTurns)
}

// GenerateReportSummary renders a plain text report, rules by hit count.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medi-Plus usage for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Turns: %d\n", ds.TotalTurns)
	fmt.Fprintf(&b, "- Unique users: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "- Unique sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- Not understood: %d (%.0f%%)\n", ds.Fallbacks, ds.FallbackRate()*100)

	if len(ds.RuleHits) > 0 {
		b.WriteString("\nRules matched:\n")
		ids := make([]string, 0, len(ds.RuleHits))
		for id := range ds.RuleHits {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if ds.RuleHits[ids[i]] != ds.RuleHits[ids[j]] {
				return ds.RuleHits[ids[i]] > ds.RuleHits[ids[j]]
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			fmt.Fprintf(&b, "- %s: %d\n", id, ds.RuleHits[id])
		}
	}

	if len(ds.UserStats) > 0 {
		fmt.Fprintf(&b, "\nUsers (%d):\n", len(ds.UserStats))
		uids := make([]int64, 0, len(ds.UserStats))
		for id := range ds.UserStats {
			uids = append(uids, id)
		}
		sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
		for _, id := range uids {
			us := ds.UserStats[id]
			fmt.Fprintf(&b, "- %d: %d turns", id, us.Turns)
			if us.Fallbacks > 0 {
				fmt.Fprintf(&b, ", %d not understood", us.Fallbacks)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
