package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Intro    IntroConfig    `mapstructure:"intro"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// BlobConfig 对象存储同步与上传配置
type BlobConfig struct {
	// MaxList 单次同步最多列出的对象数
	MaxList int `mapstructure:"max_list"`
	// MaxUploadSize 服务端直传的最大文件大小（字节）
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
}

// IntroConfig 开场视频配置（启动时注入，替代硬编码 URL）
type IntroConfig struct {
	SplashURL string `mapstructure:"splash_url"`
	EnterURL  string `mapstructure:"enter_url"`
	// FileNameMarker 目录中开场视频行的文件名标记，公开列表按此排除
	FileNameMarker string `mapstructure:"filename_marker"`
}

// Validate 校验开场视频配置非空
func (i *IntroConfig) Validate() error {
	if i.SplashURL == "" {
		return errors.New("intro.splash_url is required")
	}
	if i.EnterURL == "" {
		return errors.New("intro.enter_url is required")
	}
	return nil
}

// AdminConfig 管理员认证配置
type AdminConfig struct {
	// Password 明文口令（仅开发环境），PasswordHash（bcrypt）存在时优先
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
	CookieSecret string `mapstructure:"cookie_secret"`
	SessionHours int    `mapstructure:"session_hours"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// SessionDuration 返回会话有效期，默认 8 小时
func (a *AdminConfig) SessionDuration() time.Duration {
	hours := a.SessionHours
	if hours <= 0 {
		hours = 8
	}
	return time.Duration(hours) * time.Hour
}

// Validate 校验管理员认证配置
func (a *AdminConfig) Validate() error {
	if a.Password == "" && a.PasswordHash == "" {
		return errors.New("admin.password or admin.password_hash is required")
	}
	if a.CookieSecret == "" {
		return errors.New("admin.cookie_secret is required")
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// 全局配置实例
var globalConfig *Config

// Load 加载配置文件并校验必填项
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖（如 ADMIN_PASSWORD）
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Intro.Validate(); err != nil {
		return nil, fmt.Errorf("invalid intro config: %w", err)
	}
	if err := cfg.Admin.Validate(); err != nil {
		return nil, fmt.Errorf("invalid admin config: %w", err)
	}

	globalConfig = &cfg

	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded, please call Load() first")
	}
	return globalConfig
}

// GetApp 获取应用配置
func GetApp() *AppConfig {
	return &Get().App
}

// GetDatabase 获取数据库配置
func GetDatabase() *DatabaseConfig {
	return &Get().Database
}

// GetRedis 获取Redis配置
func GetRedis() *RedisConfig {
	return &Get().Redis
}

// GetMinIO 获取MinIO配置
func GetMinIO() *MinIOConfig {
	return &Get().MinIO
}

// GetBlob 获取对象存储同步配置
func GetBlob() *BlobConfig {
	return &Get().Blob
}

// GetIntro 获取开场视频配置
func GetIntro() *IntroConfig {
	return &Get().Intro
}

// GetAdmin 获取管理员认证配置
func GetAdmin() *AdminConfig {
	return &Get().Admin
}

// GetLog 获取日志配置
func GetLog() *LogConfig {
	return &Get().Log
}
