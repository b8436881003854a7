package nflverse

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"RosterGraph/internal/adapter"
	"RosterGraph/internal/config"
	"RosterGraph/internal/interfaces"
	"RosterGraph/internal/model"
	"RosterGraph/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register("nflverse", NewNflverseSource)
}

// Source nflverse 风格的CSV提取件数据源（名单/主目录/选秀/赛季数据均为逐年CSV文件）
type Source struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewNflverseSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.RosterSource {
	return &Source{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现RosterSource接口 ==========
func (s *Source) GetName() string {
	return "nflverse"
}

// FetchWeeklyRosters 拉取某年周度名单CSV并解析为固定schema记录
func (s *Source) FetchWeeklyRosters(ctx context.Context, year int) ([]model.RawRosterRecord, error) {
	url := fmt.Sprintf("%s%s", s.cfg.BaseURL, fmt.Sprintf(s.cfg.RosterPath, year))
	table, err := s.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取%d年周度名单失败: %w", year, err)
	}

	var records []model.RawRosterRecord
	for _, row := range table.rows {
		records = append(records, model.RawRosterRecord{
			Season:      table.intAt(row, "season"),
			Week:        table.intAt(row, "week"),
			GameSegment: table.at(row, "game_type"),
			Team:        table.at(row, "team"),
			PlayerName:  table.at(row, "player_name"),
			PrimaryID:   table.at(row, "gsis_id"),
			SecondaryID: table.at(row, "esb_id"),
			FallbackID:  table.at(row, "player_id"),
			Position:    table.at(row, "position"),
			College:     table.at(row, "college"),
		})
	}
	s.logger.Infof("成功获取%d年周度名单共%d条", year, len(records))
	return records, nil
}

// FetchPlayerMaster 拉取球员主目录（权威目录，覆盖名单中的展示字段）
func (s *Source) FetchPlayerMaster(ctx context.Context) ([]model.MasterCatalogRecord, error) {
	url := fmt.Sprintf("%s%s", s.cfg.BaseURL, s.cfg.PlayersPath)
	table, err := s.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取球员主目录失败: %w", err)
	}

	var records []model.MasterCatalogRecord
	for _, row := range table.rows {
		records = append(records, model.MasterCatalogRecord{
			SecondaryID: table.at(row, "esb_id"),
			PrimaryID:   table.at(row, "gsis_id"),
			DisplayName: table.at(row, "display_name"),
			College:     table.at(row, "college_name"),
			Position:    table.at(row, "position"),
		})
	}
	s.logger.Infof("成功获取球员主目录共%d条", len(records))
	return records, nil
}

// FetchDraftPicks 拉取选秀记录，仅保留配置年份区间内的届次
func (s *Source) FetchDraftPicks(ctx context.Context, years []int) ([]model.DraftRecord, error) {
	url := fmt.Sprintf("%s%s", s.cfg.BaseURL, s.cfg.DraftPath)
	table, err := s.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取选秀记录失败: %w", err)
	}

	yearSet := make(map[int]struct{}, len(years))
	for _, y := range years {
		yearSet[y] = struct{}{}
	}

	var records []model.DraftRecord
	for _, row := range table.rows {
		season := table.intAt(row, "season")
		if len(yearSet) > 0 {
			if _, ok := yearSet[season]; !ok {
				continue
			}
		}
		records = append(records, model.DraftRecord{
			PrimaryID:   table.at(row, "gsis_id"),
			DraftSeason: season,
		})
	}
	s.logger.Infof("成功获取选秀记录共%d条", len(records))
	return records, nil
}

// FetchSeasonalStats 拉取某年赛季数据（player_id 为 Primary 命名空间）
func (s *Source) FetchSeasonalStats(ctx context.Context, year int) ([]model.SeasonalStatRecord, error) {
	url := fmt.Sprintf("%s%s", s.cfg.BaseURL, fmt.Sprintf(s.cfg.StatsPath, year))
	table, err := s.fetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取%d年赛季数据失败: %w", year, err)
	}

	var records []model.SeasonalStatRecord
	for _, row := range table.rows {
		records = append(records, model.SeasonalStatRecord{
			PrimaryID:     table.at(row, "player_id"),
			Season:        table.intAt(row, "season"),
			FantasyPoints: table.floatAt(row, "fantasy_points"),
		})
	}
	return records, nil
}

// csvTable 带表头索引的CSV解析结果，列缺失时取值为空而不是报错
type csvTable struct {
	colIndex map[string]int
	rows     [][]string
}

func (t *csvTable) at(row []string, col string) string {
	idx, ok := t.colIndex[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *csvTable) intAt(row []string, col string) int {
	v := t.at(row, col)
	if v == "" {
		return 0
	}
	// 部分提取件的整数列带小数尾巴（如 "2023.0"）
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

func (t *csvTable) floatAt(row []string, col string) float64 {
	v := t.at(row, col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// fetchCSV 拉取并解析CSV（带重试），首行为表头
func (s *Source) fetchCSV(ctx context.Context, url string) (*csvTable, error) {
	var lastErr error
	attempts := s.cfg.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		table, err := s.fetchCSVOnce(ctx, url)
		if err == nil {
			return table, nil
		}
		lastErr = err
		s.logger.WithError(err).WithFields(logrus.Fields{
			"url":     url,
			"attempt": i + 1,
		}).Warn("CSV拉取失败")
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *Source) fetchCSVOnce(ctx context.Context, url string) (*csvTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	// 确保响应体关闭，并处理关闭时的错误
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Errorf("关闭响应体失败: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("非200响应: %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // 容忍列数不齐的行

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取CSV行失败: %w", err)
		}
		rows = append(rows, row)
	}
	return &csvTable{colIndex: colIndex, rows: rows}, nil
}
