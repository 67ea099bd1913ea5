package xsession

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/quanta/pkg/config/xconf"
	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/observability/xrotate"
	"github.com/omeyang/quanta/pkg/social/xavatar"
	"github.com/omeyang/quanta/pkg/social/xfeed"
	"github.com/omeyang/quanta/pkg/social/xpage"
	"github.com/omeyang/quanta/pkg/social/xsafety"
)

// ConfigPath 配置文件中会话配置所在的路径。
const ConfigPath = "quanta"

// Config 会话配置。
type Config struct {
	AvatarCacheCapacity int           `koanf:"avatarCacheCapacity"`
	PostsCacheCapacity  int           `koanf:"postsCacheCapacity"`
	StatsCacheCapacity  int           `koanf:"statsCacheCapacity"`
	TTLMinutes          int           `koanf:"ttlMinutes"`
	DefaultPageSize     int           `koanf:"defaultPageSize"`
	MaxBackfillRounds   int           `koanf:"maxBackfillRounds"`
	FetchTimeout        time.Duration `koanf:"fetchTimeout"`
	SafetyCacheTTL      time.Duration `koanf:"safetyCacheTTL"`
	MuteCleanupSpec     string        `koanf:"muteCleanupSpec"`
	WarmConcurrency     int           `koanf:"warmConcurrency"`
	Log                 LogConfig     `koanf:"log"`
}

// LogConfig 日志配置。File 为空时输出到 stderr。
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"maxSizeMB"`
	MaxBackups int    `koanf:"maxBackups"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		AvatarCacheCapacity: xavatar.DefaultProfileCapacity,
		PostsCacheCapacity:  xavatar.DefaultPostsCapacity,
		StatsCacheCapacity:  xavatar.DefaultStatsCapacity,
		TTLMinutes:          int(xavatar.DefaultTTL / time.Minute),
		DefaultPageSize:     xpage.DefaultPageSize,
		MaxBackfillRounds:   xfeed.DefaultMaxBackfillRounds,
		FetchTimeout:        xfeed.DefaultFetchTimeout,
		SafetyCacheTTL:      xsafety.DefaultCacheTTL,
		MuteCleanupSpec:     xsafety.DefaultCleanupSpec,
		WarmConcurrency:     xavatar.DefaultWarmConcurrency,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

// Validate 校验配置，第一个不合法的字段以 ErrInvalidConfig 包装返回。
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"avatarCacheCapacity", c.AvatarCacheCapacity},
		{"postsCacheCapacity", c.PostsCacheCapacity},
		{"statsCacheCapacity", c.StatsCacheCapacity},
		{"ttlMinutes", c.TTLMinutes},
		{"warmConcurrency", c.WarmConcurrency},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, f.name, f.value)
		}
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > xpage.MaxPageSize {
		return fmt.Errorf("%w: defaultPageSize %d outside [1, %d]", ErrInvalidConfig, c.DefaultPageSize, xpage.MaxPageSize)
	}
	if c.MaxBackfillRounds < 0 {
		return fmt.Errorf("%w: maxBackfillRounds must not be negative", ErrInvalidConfig)
	}
	if c.FetchTimeout < 0 || c.SafetyCacheTTL < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// TTL 返回缓存 TTL。
func (c Config) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c Config) avatarConfig() xavatar.Config {
	return xavatar.Config{
		ProfileCapacity: c.AvatarCacheCapacity,
		PostsCapacity:   c.PostsCacheCapacity,
		StatsCapacity:   c.StatsCacheCapacity,
		TTL:             c.TTL(),
		WarmConcurrency: c.WarmConcurrency,
	}
}

func (c Config) feedConfig() xfeed.Config {
	return xfeed.Config{MaxBackfillRounds: c.MaxBackfillRounds, FetchTimeout: c.FetchTimeout}
}

func (c Config) safetyConfig() xsafety.Config {
	return xsafety.Config{CacheCapacity: xsafety.DefaultCacheCapacity, CacheTTL: c.SafetyCacheTTL}
}

// Load 从配置文件读取 quanta 段，缺失的键使用默认值。
func Load(path string) (Config, error) {
	src, err := xconf.New(path)
	if err != nil {
		return Config{}, err
	}
	return FromSource(src)
}

// FromSource 从已加载的配置源读取 quanta 段。
func FromSource(src *xconf.Config) (Config, error) {
	cfg := DefaultConfig()
	if err := src.Unmarshal(ConfigPath, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger 按日志配置构建 Logger，返回的清理函数关闭日志文件。
func NewLogger(c LogConfig) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetLevelString(c.Level).SetFormat(c.Format)
	if c.File != "" {
		var opts []xrotate.Option
		if c.MaxSizeMB > 0 {
			opts = append(opts, xrotate.WithMaxSize(c.MaxSizeMB))
		}
		if c.MaxBackups > 0 {
			opts = append(opts, xrotate.WithMaxBackups(c.MaxBackups))
		}
		b.SetRotation(c.File, opts...)
	}
	return b.Build()
}
