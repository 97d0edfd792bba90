package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MODE_SERVER   = "server"
	MODE_SIMULATE = "simulate"

	TIE_POLICY_RANDOM         = "random"
	TIE_POLICY_NO_ELIMINATION = "no_elimination"
)

type AppConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`
	Mode        string `mapstructure:"mode"`
	// 为 0 时每局使用随机种子，否则第 n 局使用 seed+n
	Seed int64 `mapstructure:"seed"`

	Rules    RulesConfig    `mapstructure:"rules"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Service  ServiceConfig  `mapstructure:"service"`
}

type RulesConfig struct {
	AssignJester      bool          `mapstructure:"assign_jester"`
	TiePolicy         string        `mapstructure:"tie_policy"`
	VoteTimeout       time.Duration `mapstructure:"vote_timeout"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout"`
	CloseWhenAllVoted bool          `mapstructure:"close_when_all_voted"`
}

type SimulateConfig struct {
	Players []string `mapstructure:"players"`
}

type ServiceConfig struct {
	GameTTL         time.Duration `mapstructure:"game_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	config, err := Load(v)
	if err != nil {
		panic(err)
	}

	cfg = config

	return config
}

// Load 在缺省值之上叠加配置文件和环境变量（前缀 SHADOW_COURT），配置文件不存在时只使用缺省值
func Load(v *viper.Viper) (*AppConfig, error) {
	setDefaults(v)

	v.SetEnvPrefix("SHADOW_COURT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "console")
	v.SetDefault("mode", MODE_SERVER)
	v.SetDefault("seed", 0)

	v.SetDefault("rules.assign_jester", false)
	v.SetDefault("rules.tie_policy", TIE_POLICY_RANDOM)
	v.SetDefault("rules.vote_timeout", "30s")
	v.SetDefault("rules.tick_interval", "1s")
	v.SetDefault("rules.action_timeout", "20s")
	v.SetDefault("rules.close_when_all_voted", true)

	v.SetDefault("simulate.players", []string{"Player 1", "Player 2", "Player 3", "Player 4", "Player 5"})

	v.SetDefault("service.game_ttl", "30m")
	v.SetDefault("service.cleanup_interval", "1m")
}

func (c *AppConfig) Validate() error {
	switch c.Mode {
	case MODE_SERVER, MODE_SIMULATE:
	default:
		return fmt.Errorf("未知的运行模式 %q", c.Mode)
	}

	switch c.Rules.TiePolicy {
	case TIE_POLICY_RANDOM, TIE_POLICY_NO_ELIMINATION:
	default:
		return fmt.Errorf("未知的平票策略 %q", c.Rules.TiePolicy)
	}

	if c.Rules.VoteTimeout < 0 || c.Rules.TickInterval <= 0 {
		return errors.New("投票时长不能为负，计时间隔必须为正")
	}

	return nil
}
