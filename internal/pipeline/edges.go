package pipeline

import (
	"encoding/json"
	"sort"
	"strings"

	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// EdgeCaps 边生成上限（软限制：截断与提前停止，从不报错）
type EdgeCaps struct {
	MaxTotalEdges     int      // 全局总量上限（跨所有维度共享），0=不生成
	TeammateGroupSize int      // 单个(队伍,赛季)组成员上限
	CollegeGroupSize  int      // 单所大学组成员上限
	DraftGroupSize    int      // 单届选秀组成员上限
	PositionGroupSize int      // 单个位置组成员上限
	Positions         []string // position 维度的位置白名单
	StarNames         []string // teammate 元数据的明星标记名单
}

// Generator 有界边生成器：四个分组维度内枚举无序球员对。
// 全局计数以显式累加值在每次调用间传递并随结果返回（不做进程级共享状态），
// 组内截断策略为"迭代顺序前N个"——行序变化会引起成员变化，这是已记录的可接受
// 非确定性，测试只断言数量
type Generator struct {
	caps   EdgeCaps
	logger *logrus.Logger
}

func NewGenerator(caps EdgeCaps, logger *logrus.Logger) *Generator {
	return &Generator{caps: caps, logger: logger}
}

// member 组内成员（teammate 元数据需要姓名与位置）
type member struct {
	id       string
	name     string
	position string
}

// edgeGroup 一个分组维度下的单个组（成员已按组上限截断）
type edgeGroup struct {
	team      string
	season    int
	college   string
	draftYear int
	position  string
	members   []member
}

// TeammateEdges 同队同赛季维度（对游戏价值最高，最先生成）
func (g *Generator) TeammateEdges(rows []model.RosterRow, used int) ([]*model.Connection, int) {
	groups := g.teammateGroups(rows)
	return g.emit(groups, model.ConnectionTeammate, used)
}

// CollegeEdges 同大学维度
func (g *Generator) CollegeEdges(rows []model.RosterRow, used int) ([]*model.Connection, int) {
	groups := g.collegeGroups(rows)
	return g.emit(groups, model.ConnectionCollege, used)
}

// DraftClassEdges 同届选秀维度
func (g *Generator) DraftClassEdges(rows []model.RosterRow, used int) ([]*model.Connection, int) {
	groups := g.draftGroups(rows)
	return g.emit(groups, model.ConnectionDraftClass, used)
}

// PositionEdges 同位置维度（仅白名单位置）
func (g *Generator) PositionEdges(rows []model.RosterRow, used int) ([]*model.Connection, int) {
	groups := g.positionGroups(rows)
	return g.emit(groups, model.ConnectionPosition, used)
}

// emit 对每个组枚举无序对；到达全局上限时立即停止（哪怕在组中途），返回已产出部分
func (g *Generator) emit(groups []edgeGroup, connType model.ConnectionType, used int) ([]*model.Connection, int) {
	var edges []*model.Connection
	if used >= g.caps.MaxTotalEdges {
		return edges, used
	}
	for gi := range groups {
		grp := &groups[gi]
		if len(grp.members) < 2 {
			continue
		}
		for i := 0; i < len(grp.members); i++ {
			for j := i + 1; j < len(grp.members); j++ {
				if used >= g.caps.MaxTotalEdges {
					g.logger.WithFields(logrus.Fields{
						"connection_type": connType,
						"max_total_edges": g.caps.MaxTotalEdges,
					}).Info("达到全局边数上限，停止生成")
					return edges, used
				}
				a, b := grp.members[i], grp.members[j]
				edges = append(edges, &model.Connection{
					Player1ID:      a.id,
					Player2ID:      b.id,
					ConnectionType: connType,
					Metadata:       g.buildMetadata(connType, grp, a, b),
				})
				used++
			}
		}
	}
	return edges, used
}

// teammateMeta teammate 边元数据（队伍/赛季 + 明星与位置组合标记）
type teammateMeta struct {
	Team         string `json:"team"`
	Season       int    `json:"season"`
	InvolvesStar bool   `json:"involves_star"`
	PositionPair string `json:"position_pair,omitempty"`
	SamePosition bool   `json:"same_position"`
}

func (g *Generator) buildMetadata(connType model.ConnectionType, grp *edgeGroup, a, b member) datatypes.JSON {
	var meta interface{}
	switch connType {
	case model.ConnectionTeammate:
		meta = teammateMeta{
			Team:         grp.team,
			Season:       grp.season,
			InvolvesStar: g.isStar(a.name) || g.isStar(b.name),
			PositionPair: positionPair(a.position, b.position),
			SamePosition: a.position != "" && a.position == b.position,
		}
	case model.ConnectionCollege:
		meta = map[string]interface{}{"college": grp.college}
	case model.ConnectionDraftClass:
		meta = map[string]interface{}{"draft_year": grp.draftYear}
	case model.ConnectionPosition:
		meta = map[string]interface{}{"position": grp.position}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		g.logger.WithError(err).Warn("序列化边元数据失败")
		return nil
	}
	return datatypes.JSON(raw)
}

func (g *Generator) isStar(name string) bool {
	for _, star := range g.caps.StarNames {
		if star != "" && strings.Contains(strings.ToLower(name), strings.ToLower(star)) {
			return true
		}
	}
	return false
}

// positionPair 位置组合标记，字典序固定两端顺序（如 "QB-WR"）
func positionPair(p1, p2 string) string {
	if p1 == "" || p2 == "" {
		return ""
	}
	pair := []string{p1, p2}
	sort.Strings(pair)
	return pair[0] + "-" + pair[1]
}

// ===== 分组收集（生成器与估算器共用，成员均已按组上限截断） =====

// teammateGroups 按(队伍,赛季)分组，成员取迭代顺序前N个
func (g *Generator) teammateGroups(rows []model.RosterRow) []edgeGroup {
	type key struct {
		team   string
		season int
	}
	index := make(map[key]int)
	var groups []edgeGroup
	for i := range rows {
		r := &rows[i]
		if r.CanonicalID == "" || r.Team == "" {
			continue
		}
		k := key{team: r.Team, season: r.Season}
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, edgeGroup{team: r.Team, season: r.Season})
		}
		if len(groups[gi].members) < g.caps.TeammateGroupSize {
			groups[gi].members = append(groups[gi].members, member{id: r.CanonicalID, name: r.PlayerName, position: r.Position})
		}
	}
	return groups
}

// collegeGroups 按大学分组；同一球员多条收敛行只计一次（(id,大学)去重）
func (g *Generator) collegeGroups(rows []model.RosterRow) []edgeGroup {
	index := make(map[string]int)
	seen := make(map[string]struct{})
	var groups []edgeGroup
	for i := range rows {
		r := &rows[i]
		if r.CanonicalID == "" || r.College == "" || r.College == defaultCollege {
			continue
		}
		dedupKey := r.CanonicalID + "|" + r.College
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}
		gi, ok := index[r.College]
		if !ok {
			gi = len(groups)
			index[r.College] = gi
			groups = append(groups, edgeGroup{college: r.College})
		}
		if len(groups[gi].members) < g.caps.CollegeGroupSize {
			groups[gi].members = append(groups[gi].members, member{id: r.CanonicalID, name: r.PlayerName, position: r.Position})
		}
	}
	return groups
}

// draftGroups 按选秀届次分组（draft_year=0 视为未知，不参与）
func (g *Generator) draftGroups(rows []model.RosterRow) []edgeGroup {
	index := make(map[int]int)
	seen := make(map[string]struct{})
	var groups []edgeGroup
	for i := range rows {
		r := &rows[i]
		if r.CanonicalID == "" || r.DraftYear <= 0 {
			continue
		}
		if _, dup := seen[r.CanonicalID]; dup {
			continue
		}
		seen[r.CanonicalID] = struct{}{}
		gi, ok := index[r.DraftYear]
		if !ok {
			gi = len(groups)
			index[r.DraftYear] = gi
			groups = append(groups, edgeGroup{draftYear: r.DraftYear})
		}
		if len(groups[gi].members) < g.caps.DraftGroupSize {
			groups[gi].members = append(groups[gi].members, member{id: r.CanonicalID, name: r.PlayerName, position: r.Position})
		}
	}
	return groups
}

// positionGroups 按位置白名单顺序分组（(id,位置)去重）
func (g *Generator) positionGroups(rows []model.RosterRow) []edgeGroup {
	allowed := make(map[string]int, len(g.caps.Positions))
	groups := make([]edgeGroup, len(g.caps.Positions))
	for i, p := range g.caps.Positions {
		allowed[p] = i
		groups[i] = edgeGroup{position: p}
	}
	seen := make(map[string]struct{})
	for i := range rows {
		r := &rows[i]
		if r.CanonicalID == "" || r.Position == "" {
			continue
		}
		gi, ok := allowed[r.Position]
		if !ok {
			continue
		}
		dedupKey := r.CanonicalID + "|" + r.Position
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}
		if len(groups[gi].members) < g.caps.PositionGroupSize {
			groups[gi].members = append(groups[gi].members, member{id: r.CanonicalID, name: r.PlayerName, position: r.Position})
		}
	}
	return groups
}
