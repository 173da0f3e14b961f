// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 中，YAML 不存任何密码。
//
// 环境：
//   - 开发: APP_ENV=dev (默认) → configs/dev.yaml
//   - 测试: APP_ENV=test       → configs/test.yaml
//   - 生产: APP_ENV=prod       → configs/prod.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"court-admin/internal/apiserver/auth"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthYAMLConfig `yaml:"auth"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
//
// Driver 支持 postgres / sqlite。sqlite 时只看 Path，
// postgres 时由各字段 + DB_PASSWORD 环境变量拼出连接串。
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	Path    string `yaml:"path"` // sqlite 数据文件路径
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Name    string `yaml:"name"`
	SSLMode string `yaml:"sslmode"`
}

// RedisConfig Redis 配置，Enabled=false 时关闭缓存与登录限流
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
}

// MongoConfig MongoDB 配置（driver=mongo 时作为主存储）
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// MinIOConfig 对象存储配置
// AccessKey/SecretKey 只从 MINIO_ACCESS_KEY / MINIO_SECRET_KEY 环境变量读取
type MinIOConfig struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// AuthYAMLConfig 认证配置的 YAML 部分
// JWTSecret / 管理员引导凭据只从环境变量读取
type AuthYAMLConfig struct {
	TokenTTL       time.Duration `yaml:"token_ttl"`
	TimeoutMinutes int           `yaml:"timeout_minutes"`
	WarningMinutes int           `yaml:"warning_minutes"`
	MaxLoginFails  int           `yaml:"max_login_fails"`
	ThrottleTTL    time.Duration `yaml:"throttle_ttl"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env Environment

	APIPort string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	RedisEnabled bool
	RedisURL     string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	Auth auth.Config

	// 管理员引导（首次启动创建）
	AdminUsername string
	AdminPassword string
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	dbPassword := getEnv("DB_PASSWORD", "court_dev_password")

	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = os.Getenv("JWT_SECRET")
	if yamlCfg.Auth.TokenTTL > 0 {
		authCfg.TokenTTL = yamlCfg.Auth.TokenTTL
	}
	if yamlCfg.Auth.TimeoutMinutes > 0 {
		authCfg.TimeoutMinutes = yamlCfg.Auth.TimeoutMinutes
	}
	if yamlCfg.Auth.WarningMinutes > 0 {
		authCfg.WarningMinutes = yamlCfg.Auth.WarningMinutes
	}
	if yamlCfg.Auth.MaxLoginFails > 0 {
		authCfg.MaxLoginFails = yamlCfg.Auth.MaxLoginFails
	}
	if yamlCfg.Auth.ThrottleTTL > 0 {
		authCfg.ThrottleTTL = yamlCfg.Auth.ThrottleTTL
	}

	cfg := &Config{
		Env:     env,
		APIPort: getEnv("API_PORT", yamlCfg.Server.Port),

		DBDriver:    getEnv("DB_DRIVER", yamlCfg.Database.Driver),
		DatabaseURL: buildDatabaseURL(yamlCfg.Database, dbPassword),
		SQLitePath:  yamlCfg.Database.Path,
		MongoURI:    getEnv("MONGO_URI", yamlCfg.Mongo.URI),
		MongoDB:     yamlCfg.Mongo.Database,

		RedisEnabled: yamlCfg.Redis.Enabled,
		RedisURL:     buildRedisURL(yamlCfg.Redis),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    yamlCfg.MinIO.Bucket,
		MinIOUseSSL:    yamlCfg.MinIO.UseSSL,

		Auth: authCfg,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	// DATABASE_URL 整体覆盖拼接结果
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, User: "court", Name: "court_admin", SSLMode: "disable", Path: "court-admin.db"},
		Redis:    RedisConfig{Enabled: true, Host: "localhost", Port: 6379, DB: 0},
		Mongo:    MongoConfig{URI: "mongodb://localhost:27017", Database: "court_admin"},
		MinIO:    MinIOConfig{Endpoint: "localhost:9000", Bucket: "court-admin"},
	}

	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildDatabaseURL 构建 PostgreSQL 连接字符串
func buildDatabaseURL(db DatabaseConfig, password string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, password, db.Host, db.Port, db.Name, db.SSLMode)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Redis: %s}",
		c.Env, c.DBDriver, maskPassword(c.DatabaseURL), c.RedisURL)
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
