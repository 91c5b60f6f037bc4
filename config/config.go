package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Rating    RatingConfig    `mapstructure:"rating"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Lock      LockConfig      `mapstructure:"lock"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"` // 需覆盖导出生成耗时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（分布式锁、Token 黑名单、限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
// Token 由身份服务签发，本服务只负责校验
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackingConfig 作业跟踪配置
// 夜班窗口跨越午夜：[NightStartHour, 24) ∪ [0, NightEndHour)
type TrackingConfig struct {
	Timezone       string `mapstructure:"timezone"`
	NightStartHour int    `mapstructure:"night_start_hour"`
	NightEndHour   int    `mapstructure:"night_end_hour"`
}

// Location 解析时区，失败时退回 UTC
func (c *TrackingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RatingConfig 评分规则参数
type RatingConfig struct {
	TimeBaseline       float64 `mapstructure:"time_baseline"`
	TimeMin            float64 `mapstructure:"time_min"`
	TimeMax            float64 `mapstructure:"time_max"`
	EarlyTier1Ratio    float64 `mapstructure:"early_tier1_ratio"` // 实际/预估 ≤ 该值 → +EarlyTier1Bonus
	EarlyTier1Bonus    float64 `mapstructure:"early_tier1_bonus"`
	EarlyTier2Ratio    float64 `mapstructure:"early_tier2_ratio"`
	EarlyTier2Bonus    float64 `mapstructure:"early_tier2_bonus"`
	LatePenaltyPerHour float64 `mapstructure:"late_penalty_per_hour"`
	QCMin              int     `mapstructure:"qc_min"`
	QCMax              int     `mapstructure:"qc_max"`
	QCAcceptableLow    int     `mapstructure:"qc_acceptable_low"`
	QCAcceptableHigh   int     `mapstructure:"qc_acceptable_high"`
	CleaningMax        int     `mapstructure:"cleaning_max"`
	BonusMin           int     `mapstructure:"bonus_min"`
	BonusMax           int     `mapstructure:"bonus_max"`
}

// SchedulerConfig 定时任务配置（robfig/cron 表达式，含秒字段）
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	DayShiftFlagCron   string `mapstructure:"day_shift_flag_cron"`
	NightShiftFlagCron string `mapstructure:"night_shift_flag_cron"`
	PerformanceCron    string `mapstructure:"performance_cron"`
}

// LockConfig 单飞锁配置
type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("BERTHOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "berthops")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "") // 必须由配置文件或 BERTHOPS_AUTH_JWT_SECRET 提供
	v.SetDefault("auth.issuer", "berthops-identity")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracking.timezone", "UTC")
	v.SetDefault("tracking.night_start_hour", 19)
	v.SetDefault("tracking.night_end_hour", 7)

	v.SetDefault("rating.time_baseline", 7.0)
	v.SetDefault("rating.time_min", 1.0)
	v.SetDefault("rating.time_max", 10.0)
	v.SetDefault("rating.early_tier1_ratio", 0.90)
	v.SetDefault("rating.early_tier1_bonus", 1.0)
	v.SetDefault("rating.early_tier2_ratio", 0.75)
	v.SetDefault("rating.early_tier2_bonus", 2.0)
	v.SetDefault("rating.late_penalty_per_hour", 2.0)
	v.SetDefault("rating.qc_min", 1)
	v.SetDefault("rating.qc_max", 5)
	v.SetDefault("rating.qc_acceptable_low", 2)
	v.SetDefault("rating.qc_acceptable_high", 4)
	v.SetDefault("rating.cleaning_max", 2)
	v.SetDefault("rating.bonus_min", -10)
	v.SetDefault("rating.bonus_max", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.day_shift_flag_cron", "0 15 19 * * *")  // 白班结束后 19:15
	v.SetDefault("scheduler.night_shift_flag_cron", "0 15 7 * * *") // 夜班结束后 07:15
	v.SetDefault("scheduler.performance_cron", "0 30 2 * * *")      // 每日 02:30 汇总昨日

	v.SetDefault("lock.ttl", "5m")
}

// DefaultRating 返回默认评分规则（测试与未配置时使用）
func DefaultRating() RatingConfig {
	return RatingConfig{
		TimeBaseline:       7.0,
		TimeMin:            1.0,
		TimeMax:            10.0,
		EarlyTier1Ratio:    0.90,
		EarlyTier1Bonus:    1.0,
		EarlyTier2Ratio:    0.75,
		EarlyTier2Bonus:    2.0,
		LatePenaltyPerHour: 2.0,
		QCMin:              1,
		QCMax:              5,
		QCAcceptableLow:    2,
		QCAcceptableHigh:   4,
		CleaningMax:        2,
		BonusMin:           -10,
		BonusMax:           10,
	}
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Tracking.NightStartHour < 0 || c.Tracking.NightStartHour > 23 ||
		c.Tracking.NightEndHour < 0 || c.Tracking.NightEndHour > 23 {
		return fmt.Errorf("配置校验失败: tracking 夜班窗口小时必须在 0-23 之间")
	}
	if c.Rating.TimeMin >= c.Rating.TimeMax {
		return fmt.Errorf("配置校验失败: rating.time_min 必须小于 rating.time_max")
	}
	if c.Scheduler.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		for name, spec := range map[string]string{
			"day_shift_flag_cron":   c.Scheduler.DayShiftFlagCron,
			"night_shift_flag_cron": c.Scheduler.NightShiftFlagCron,
			"performance_cron":      c.Scheduler.PerformanceCron,
		} {
			if _, err := parser.Parse(spec); err != nil {
				return fmt.Errorf("配置校验失败: scheduler.%s 无效: %w", name, err)
			}
		}
	}
	return nil
}
