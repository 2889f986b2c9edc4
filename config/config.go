package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database configuration
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
	// initial administrator created by initdb and on first start
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// WebConfig HTTP API configuration
type WebConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Secret       string `yaml:"secret"`
	TokenTTL     int    `yaml:"token_ttl"` // hours
	CookieSecure bool   `yaml:"cookie_secure"`
	Metrics      bool   `yaml:"metrics"`
	CorsOrigins  string `yaml:"cors_origins"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// MailConfig SMTP configuration used for order notifications
type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	Workers  int    `yaml:"workers"`
}

// AIConfig third-party inference settings
type AIConfig struct {
	DiseaseURL     string `yaml:"disease_url"`
	DiseaseToken   string `yaml:"disease_token"`
	GenAIKey       string `yaml:"genai_key"`
	GenAIModel     string `yaml:"genai_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	CacheTTL       int    `yaml:"cache_ttl"` // minutes
}

// RedisConfig optional cache backend, disabled when Addr is empty
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Mail     MailConfig  `yaml:"mail"`
	AI       AIConfig    `yaml:"ai"`
	Redis    RedisConfig `yaml:"redis"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// TokenTTL returns the JWT lifetime
func (c *AppConfig) TokenTTL() time.Duration {
	if c.Web.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Web.TokenTTL) * time.Hour
}

// AITimeout returns the outbound inference request timeout
func (c *AppConfig) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o700)
	_ = os.MkdirAll(c.GetDataDir(), 0o700)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "AgroMate",
		Location: "Asia/Kolkata",
		Workdir:  "/var/agromate",
		Debug:    true,

		AdminEmail:    "admin@agromate.local",
		AdminPassword: "agromate",
	},
	Web: WebConfig{
		Host:     "0.0.0.0",
		Port:     5000,
		Secret:   "9b6de5cc-agromate-0f1e-jwt-secret",
		TokenTTL: 24 * 7,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "agromate",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/agromate/agromate.log",
	},
	Mail: MailConfig{
		Port:    587,
		From:    "AgroMate <noreply@agromate.local>",
		Workers: 4,
	},
	AI: AIConfig{
		DiseaseURL:     "https://api-inference.huggingface.co/models/linkanjarad/mobilenet_v2_1.0_224-plant-disease-identification",
		GenAIModel:     "gemini-2.0-flash",
		TimeoutSeconds: 30,
		MaxRetries:     3,
		CacheTTL:       24 * 60,
	},
}

// LoadConfig reads the YAML file (when present) on top of the defaults and
// applies AGROMATE_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = "agromate.yml"
	}
	if !fileExists(cfile) {
		cfile = "/etc/agromate.yml"
	}
	if fileExists(cfile) {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}

	setEnvValue("AGROMATE_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("AGROMATE_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("AGROMATE_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvValue("AGROMATE_ADMIN_EMAIL", &cfg.System.AdminEmail)
	setEnvValue("AGROMATE_ADMIN_PASSWORD", &cfg.System.AdminPassword)

	setEnvValue("AGROMATE_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("AGROMATE_WEB_PORT", &cfg.Web.Port)
	setEnvValue("AGROMATE_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("AGROMATE_WEB_TOKEN_TTL", &cfg.Web.TokenTTL)
	setEnvBoolValue("AGROMATE_WEB_COOKIE_SECURE", &cfg.Web.CookieSecure)
	setEnvBoolValue("AGROMATE_WEB_METRICS", &cfg.Web.Metrics)
	setEnvValue("AGROMATE_WEB_CORS_ORIGINS", &cfg.Web.CorsOrigins)

	setEnvValue("AGROMATE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("AGROMATE_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("AGROMATE_DB_PORT", &cfg.Database.Port)
	setEnvValue("AGROMATE_DB_NAME", &cfg.Database.Name)
	setEnvValue("AGROMATE_DB_USER", &cfg.Database.User)
	setEnvValue("AGROMATE_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("AGROMATE_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("AGROMATE_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("AGROMATE_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvBoolValue("AGROMATE_MAIL_ENABLED", &cfg.Mail.Enabled)
	setEnvValue("AGROMATE_MAIL_HOST", &cfg.Mail.Host)
	setEnvIntValue("AGROMATE_MAIL_PORT", &cfg.Mail.Port)
	setEnvValue("AGROMATE_MAIL_USERNAME", &cfg.Mail.Username)
	setEnvValue("AGROMATE_MAIL_PASSWORD", &cfg.Mail.Password)
	setEnvValue("AGROMATE_MAIL_FROM", &cfg.Mail.From)

	setEnvValue("AGROMATE_AI_DISEASE_URL", &cfg.AI.DiseaseURL)
	setEnvValue("AGROMATE_AI_DISEASE_TOKEN", &cfg.AI.DiseaseToken)
	setEnvValue("AGROMATE_AI_GENAI_KEY", &cfg.AI.GenAIKey)
	setEnvValue("AGROMATE_AI_GENAI_MODEL", &cfg.AI.GenAIModel)
	setEnvIntValue("AGROMATE_AI_MAX_RETRIES", &cfg.AI.MaxRetries)

	setEnvValue("AGROMATE_REDIS_ADDR", &cfg.Redis.Addr)
	setEnvValue("AGROMATE_REDIS_PASSWORD", &cfg.Redis.Password)
	setEnvIntValue("AGROMATE_REDIS_DB", &cfg.Redis.DB)

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	cfg.initDirs()
	return &cfg, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func setEnvValue(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}
