package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置
	ETL      ETLConfig      `mapstructure:"etl"`      // 管道运行配置
	Source   SourceConfig   `mapstructure:"source"`   // 上游数据源配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// ETLConfig 管道运行配置（所有影响写入量的上限均可由运维调整，禁止硬编码）
type ETLConfig struct {
	StartYear        int        `mapstructure:"start_year"`         // 起始赛季
	EndYear          int        `mapstructure:"end_year"`           // 结束赛季，0=当前年
	BatchSize        int        `mapstructure:"batch_size"`         // 落库分块大小
	ChunkPauseMS     int        `mapstructure:"chunk_pause_ms"`     // 分块间停顿（毫秒），给库喘息
	GameSegments     []string   `mapstructure:"game_segments"`      // 参与统计的比赛阶段
	StarNames        []string   `mapstructure:"star_names"`         // 明星球员名单（teammate 边元数据标记）
	MinFantasyPoints float64    `mapstructure:"min_fantasy_points"` // 显著性阈值，0=不过滤
	Edges            EdgeConfig `mapstructure:"edges"`              // 边生成上限
}

// EdgeConfig 边生成的软上限（截断/提前停止，不报错）
type EdgeConfig struct {
	MaxTotalEdges     int      `mapstructure:"max_total_edges"`     // 全局总量上限，0=不生成边
	TeammateGroupSize int      `mapstructure:"teammate_group_size"` // 单个(队伍,赛季)组的成员上限
	CollegeGroupSize  int      `mapstructure:"college_group_size"`  // 单所大学组的成员上限
	DraftGroupSize    int      `mapstructure:"draft_group_size"`    // 单届选秀组的成员上限
	PositionGroupSize int      `mapstructure:"position_group_size"` // 单个位置组的成员上限
	Positions         []string `mapstructure:"positions"`           // 参与 position 维度的位置白名单
}

// SourceConfig 上游数据源配置（按年返回名单/主目录/选秀CSV提取件）
type SourceConfig struct {
	Name        string `mapstructure:"name"`         // 数据源适配器名称
	BaseURL     string `mapstructure:"base_url"`     // API基础地址
	RosterPath  string `mapstructure:"roster_path"`  // 周度名单路径模板（含%d年份占位）
	PlayersPath string `mapstructure:"players_path"` // 球员主目录路径
	DraftPath   string `mapstructure:"draft_path"`   // 选秀记录路径
	StatsPath   string `mapstructure:"stats_path"`   // 赛季数据路径模板（含%d年份占位）
	Timeout     int    `mapstructure:"timeout"`      // 请求超时（秒）
	RetryCount  int    `mapstructure:"retry_count"`  // 重试次数
	Proxy       string `mapstructure:"proxy"`        // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SOURCE_PROXY"); v != "" {
		cfg.Source.Proxy = v
	}
}

// ApplyDefaults 兜底默认值（保证配置缺项时仍能跑通）
func ApplyDefaults(cfg *Config) {
	if cfg.ETL.StartYear == 0 {
		cfg.ETL.StartYear = 2020
	}
	if cfg.ETL.BatchSize <= 0 {
		cfg.ETL.BatchSize = 500
	}
	if cfg.ETL.ChunkPauseMS < 0 {
		cfg.ETL.ChunkPauseMS = 0
	}
	if len(cfg.ETL.GameSegments) == 0 {
		cfg.ETL.GameSegments = []string{"REG", "WC", "DIV", "CON", "SB"}
	}
	if cfg.ETL.Edges.TeammateGroupSize <= 0 {
		cfg.ETL.Edges.TeammateGroupSize = 25
	}
	if cfg.ETL.Edges.CollegeGroupSize <= 0 {
		cfg.ETL.Edges.CollegeGroupSize = 50
	}
	if cfg.ETL.Edges.DraftGroupSize <= 0 {
		cfg.ETL.Edges.DraftGroupSize = 50
	}
	if cfg.ETL.Edges.PositionGroupSize <= 0 {
		cfg.ETL.Edges.PositionGroupSize = 30
	}
	if len(cfg.ETL.Edges.Positions) == 0 {
		cfg.ETL.Edges.Positions = []string{"QB", "RB", "WR", "TE", "K", "P"}
	}
	if cfg.Source.Timeout <= 0 {
		cfg.Source.Timeout = 30
	}
}

// Years 展开配置的赛季区间；EndYear=0 时取当前年份
func (e *ETLConfig) Years() []int {
	end := e.EndYear
	if end == 0 {
		end = time.Now().Year()
	}
	if end < e.StartYear {
		return nil
	}
	years := make([]int, 0, end-e.StartYear+1)
	for y := e.StartYear; y <= end; y++ {
		years = append(years, y)
	}
	return years
}
