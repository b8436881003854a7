package pipeline

import (
	"encoding/json"
	"errors"
	"sort"

	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ErrNoCanonicalID 上游契约被破坏：收敛行中不存在任何 canonical_id（致命，不可恢复）
var ErrNoCanonicalID = errors.New("收敛行缺少canonical_id，上游合并契约被破坏")

const (
	defaultPosition = "UNK"
	defaultCollege  = "Unknown"
)

// SummarizePlayers 按 canonical_id 分组生成最终球员实体：
// name/position/college 取首个非空（缺省 UNK/Unknown），draft_year 取首个非零（缺省0），
// teams 为出现过的球队去重集合，first/last_season 为赛季最小/最大值。
// 组内解析出的 name 为空的球员无法暴露给游戏层，过滤并计数
func SummarizePlayers(rows []model.RosterRow, logger *logrus.Logger) ([]*model.Player, error) {
	type acc struct {
		player    *model.Player
		teams     []string
		teamSeen  map[string]struct{}
	}

	byID := make(map[string]*acc, len(rows))
	order := make([]string, 0, len(rows)) // 保持首次出现顺序，输出可复现
	for i := range rows {
		r := &rows[i]
		if r.CanonicalID == "" {
			continue
		}
		a, ok := byID[r.CanonicalID]
		if !ok {
			a = &acc{
				player: &model.Player{
					ID:          r.CanonicalID,
					FirstSeason: r.Season,
					LastSeason:  r.Season,
				},
				teamSeen: make(map[string]struct{}),
			}
			byID[r.CanonicalID] = a
			order = append(order, r.CanonicalID)
		}
		p := a.player
		if p.Name == "" {
			p.Name = r.PlayerName
		}
		if p.Position == "" {
			p.Position = r.Position
		}
		if p.College == "" {
			p.College = r.College
		}
		if p.DraftYear == 0 {
			p.DraftYear = r.DraftYear
		}
		if r.Team != "" {
			if _, seen := a.teamSeen[r.Team]; !seen {
				a.teamSeen[r.Team] = struct{}{}
				a.teams = append(a.teams, r.Team)
			}
		}
		if r.Season < p.FirstSeason {
			p.FirstSeason = r.Season
		}
		if r.Season > p.LastSeason {
			p.LastSeason = r.Season
		}
	}

	if len(byID) == 0 {
		return nil, ErrNoCanonicalID
	}

	droppedNoName := 0
	players := make([]*model.Player, 0, len(byID))
	for _, id := range order {
		a := byID[id]
		p := a.player
		if p.Name == "" {
			droppedNoName++
			continue
		}
		if p.Position == "" {
			p.Position = defaultPosition
		}
		if p.College == "" {
			p.College = defaultCollege
		}
		sort.Strings(a.teams) // 集合本身无序，排序只为落库字节稳定
		teamsJSON, err := json.Marshal(a.teams)
		if err != nil {
			return nil, err
		}
		p.Teams = datatypes.JSON(teamsJSON)
		players = append(players, p)
	}

	if droppedNoName > 0 {
		logger.WithField("dropped", droppedNoName).Warn("部分球员名称为空，无法暴露给游戏层，已过滤")
	}
	logger.Infof("球员汇总完成：%d 条收敛行归并为 %d 名球员", len(rows), len(players))
	return players, nil
}
