package pipeline

import (
	"RosterGraph/internal/model"
)

// EstimateReport 边数估算报告：不物化任何球员对，只重放与生成器相同的截断算术，
// 供运维在真实落库前预判写入量（只读计算，绝不修改持久化状态）
type EstimateReport struct {
	PerDimension map[model.ConnectionType]int `json:"per_dimension"` // 各维度按组上限截断后的配对数
	Groups       map[model.ConnectionType]int `json:"groups"`        // 各维度的组数
	Total        int                          `json:"total"`         // 运行总数（越过全局上限即提前停止累计，数值可能为部分和）
	CappedTotal  int                          `json:"capped_total"`  // 按全局上限收口后的总数
	Safe         bool                         `json:"safe"`          // 运行总数未越过全局上限时为 true
}

// Estimate 对四个维度依次（与生成顺序一致：teammate→college→draft_class→position）
// 按 capped_size*(capped_size-1)/2 闭式累计；运行总数一旦越过全局上限立即提前退出扫描。
// 未触及上限时各维度计数与生成器实际产出严格一致
func (g *Generator) Estimate(rows []model.RosterRow) *EstimateReport {
	report := &EstimateReport{
		PerDimension: make(map[model.ConnectionType]int, 4),
		Groups:       make(map[model.ConnectionType]int, 4),
	}

	dimensions := []struct {
		connType model.ConnectionType
		groups   []edgeGroup
	}{
		{model.ConnectionTeammate, g.teammateGroups(rows)},
		{model.ConnectionCollege, g.collegeGroups(rows)},
		{model.ConnectionDraftClass, g.draftGroups(rows)},
		{model.ConnectionPosition, g.positionGroups(rows)},
	}

	total := 0
	exceeded := false
	for _, dim := range dimensions {
		report.Groups[dim.connType] = len(dim.groups)
		count := 0
		if !exceeded {
			for i := range dim.groups {
				n := len(dim.groups[i].members)
				count += n * (n - 1) / 2
				if total+count > g.caps.MaxTotalEdges {
					// 预算已爆，无须继续精确扫描
					exceeded = true
					break
				}
			}
		}
		report.PerDimension[dim.connType] = count
		total += count
	}

	report.Total = total
	report.CappedTotal = total
	if report.CappedTotal > g.caps.MaxTotalEdges {
		report.CappedTotal = g.caps.MaxTotalEdges
	}
	report.Safe = !exceeded
	return report
}
