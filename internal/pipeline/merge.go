package pipeline

import (
	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
)

// MergeStats 合并阶段的质量计数（缺陷降级为告警+计数，不中断运行）
type MergeStats struct {
	RosterRecords     int // 输入名单行数
	RosterSecondaryOK int // 名单中 Secondary 标识非空的行数
	MasterRecords     int // 主目录行数
	MasterDuplicates  int // 主目录键重复数（keep-first 去重）
	MasterMatched     int // 命中主目录的名单行数
	DraftMatched      int // 命中选秀记录的名单行数
	MissingCanonical  int // 三个标识全缺、被丢弃的行数
}

// MergeSources 源合并：名单 left join 主目录（Secondary 键，目录字段优先），
// 再 left join 选秀记录（Primary 键，产出 draft_year，缺省0），最后归并 canonical_id。
// 纯函数、与行序无关；join 键不唯一属于目录缺陷，以重复计数暴露而不是掩盖
func MergeSources(rosters []model.RawRosterRecord, master []model.MasterCatalogRecord, drafts []model.DraftRecord, logger *logrus.Logger) ([]model.RosterRow, MergeStats) {
	stats := MergeStats{
		RosterRecords: len(rosters),
		MasterRecords: len(master),
	}

	// 1. 主目录按 Secondary 键 keep-first 去重（重复是目录缺陷，不是致命错误）
	masterByKey := make(map[string]*model.MasterCatalogRecord, len(master))
	for i := range master {
		key := master[i].SecondaryID
		if key == "" {
			continue
		}
		if _, exists := masterByKey[key]; exists {
			stats.MasterDuplicates++
			continue
		}
		masterByKey[key] = &master[i]
	}
	if stats.MasterDuplicates > 0 {
		logger.WithField("duplicates", stats.MasterDuplicates).Warn("主目录存在重复键，已按首条保留")
	}

	// 2. 选秀记录按 Primary 键索引（同样 keep-first）
	draftByKey := make(map[string]int, len(drafts))
	for _, d := range drafts {
		if d.PrimaryID == "" {
			continue
		}
		if _, exists := draftByKey[d.PrimaryID]; !exists {
			draftByKey[d.PrimaryID] = d.DraftSeason
		}
	}

	rows := make([]model.RosterRow, 0, len(rosters))
	for i := range rosters {
		rec := &rosters[i]
		name, college, position := rec.PlayerName, rec.College, rec.Position
		primaryID := rec.PrimaryID

		if rec.SecondaryID != "" {
			stats.RosterSecondaryOK++
			if m, ok := masterByKey[rec.SecondaryID]; ok {
				stats.MasterMatched++
				// 字段归并规则：目录值存在则覆盖名单值（目录为权威）
				if m.DisplayName != "" {
					name = m.DisplayName
				}
				if m.College != "" {
					college = m.College
				}
				if m.Position != "" {
					position = m.Position
				}
				// Primary 标识缺失时用目录交叉引用回填
				if primaryID == "" {
					primaryID = m.PrimaryID
				}
			}
		}

		draftYear := 0
		if primaryID != "" {
			if season, ok := draftByKey[primaryID]; ok {
				draftYear = season
				stats.DraftMatched++
			}
		}

		canonicalID, ok := ResolveCanonicalID(primaryID, rec.SecondaryID, rec.FallbackID)
		if !ok {
			stats.MissingCanonical++
			continue
		}

		rows = append(rows, model.RosterRow{
			CanonicalID: canonicalID,
			PlayerName:  name,
			Team:        rec.Team,
			Season:      rec.Season,
			Week:        rec.Week,
			GameSegment: rec.GameSegment,
			Position:    position,
			College:     college,
			DraftYear:   draftYear,
		})
	}

	if stats.MissingCanonical > 0 {
		logger.WithField("dropped", stats.MissingCanonical).Warn("部分名单记录三个标识全缺，无法归并canonical_id，已丢弃")
	}
	logger.WithFields(logrus.Fields{
		"roster_records":   stats.RosterRecords,
		"master_matched":   stats.MasterMatched,
		"draft_matched":    stats.DraftMatched,
		"master_dups":      stats.MasterDuplicates,
		"missing_canonical": stats.MissingCanonical,
	}).Info("源合并完成")
	return rows, stats
}
