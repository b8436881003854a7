package pipeline

import (
	"sort"

	"RosterGraph/internal/model"
)

// AggregateSeasonTeam 赛季收敛：每个(season, team, canonical_id)只保留 week 最大的一条
// （"最近一期为准"的确定性决胜；同组内字段冲突以排序最靠后的一期为准）。
// 输出按 (season, team, canonical_id) 排序，保证下游迭代顺序稳定
func AggregateSeasonTeam(rows []model.RosterRow) []model.RosterRow {
	type groupKey struct {
		season      int
		team        string
		canonicalID string
	}

	latest := make(map[groupKey]model.RosterRow, len(rows))
	for _, r := range rows {
		if r.CanonicalID == "" {
			continue
		}
		key := groupKey{season: r.Season, team: r.Team, canonicalID: r.CanonicalID}
		if cur, ok := latest[key]; !ok || r.Week >= cur.Week {
			// >= 使同周重复时后出现的行获胜，与按 week 升序排序后取末条等价
			latest[key] = r
		}
	}

	out := make([]model.RosterRow, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].CanonicalID < out[j].CanonicalID
	})
	return out
}
