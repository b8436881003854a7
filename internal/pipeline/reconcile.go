package pipeline

import (
	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
)

// ResolveCanonicalID 按固定优先级取首个非空标识：Primary > Secondary > Fallback
// 这是对三元标识组的全函数，不做任何概率匹配；三个标识全缺时返回 false，
// 该记录由调用方计数后丢弃（数据质量缺陷，需记日志，不允许静默吞掉）
func ResolveCanonicalID(primaryID, secondaryID, fallbackID string) (string, bool) {
	if primaryID != "" {
		return primaryID, true
	}
	if secondaryID != "" {
		return secondaryID, true
	}
	if fallbackID != "" {
		return fallbackID, true
	}
	return "", false
}

// SignificanceSet 显著性过滤集合：Primary 命名空间的原始集合 + 经主目录翻译出的 Secondary 集合
type SignificanceSet struct {
	Primary   map[string]struct{}
	Secondary map[string]struct{}
}

// BuildSignificanceSet 按阈值从赛季数据构建显著性集合（Primary 命名空间），
// 再通过主目录把集合翻译到 Secondary 命名空间（跨命名空间映射 join）
func BuildSignificanceSet(stats []model.SeasonalStatRecord, master []model.MasterCatalogRecord, minPoints float64) *SignificanceSet {
	set := &SignificanceSet{
		Primary:   make(map[string]struct{}),
		Secondary: make(map[string]struct{}),
	}
	for _, st := range stats {
		if st.PrimaryID == "" || st.FantasyPoints < minPoints {
			continue
		}
		set.Primary[st.PrimaryID] = struct{}{}
	}
	for _, m := range master {
		if m.PrimaryID == "" || m.SecondaryID == "" {
			continue
		}
		if _, ok := set.Primary[m.PrimaryID]; ok {
			set.Secondary[m.SecondaryID] = struct{}{}
		}
	}
	return set
}

// Contains 判定一条原始记录是否落在显著性集合内：
// 有 Secondary 标识则查翻译后的集合，否则退回 Primary 集合；两个标识都没有的记录
// 走缺失标识的缺陷路径，这里直接排除
func (s *SignificanceSet) Contains(rec *model.RawRosterRecord) bool {
	if rec.SecondaryID != "" {
		if _, ok := s.Secondary[rec.SecondaryID]; ok {
			return true
		}
	}
	if rec.PrimaryID != "" {
		if _, ok := s.Primary[rec.PrimaryID]; ok {
			return true
		}
	}
	return false
}

// FilterSignificant 在重量级 join 之前收缩工作集（大年份区间下控制内存）
func FilterSignificant(records []model.RawRosterRecord, set *SignificanceSet, logger *logrus.Logger) []model.RawRosterRecord {
	kept := make([]model.RawRosterRecord, 0, len(records))
	for i := range records {
		if set.Contains(&records[i]) {
			kept = append(kept, records[i])
		}
	}
	logger.WithFields(logrus.Fields{
		"before": len(records),
		"after":  len(kept),
	}).Info("显著性过滤完成")
	return kept
}

// FilterGameSegments 只保留有意义的比赛阶段（REG/季后赛等，列表可配置）
func FilterGameSegments(records []model.RawRosterRecord, segments []string) []model.RawRosterRecord {
	if len(segments) == 0 {
		return records
	}
	segSet := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		segSet[s] = struct{}{}
	}
	kept := make([]model.RawRosterRecord, 0, len(records))
	for _, r := range records {
		if _, ok := segSet[r.GameSegment]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}
