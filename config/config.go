package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database config
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

// SysConfig System config
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig Web admin config
type WebConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

// LogConfig Log config
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// StoreConfig shop level settings
type StoreConfig struct {
	FixedRate         float64 `yaml:"fixed_rate"`
	LowStockThreshold int     `yaml:"low_stock_threshold"`
	AdminPassword     string  `yaml:"admin_password"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Store    StoreConfig `yaml:"store"`
}

func (c *AppConfig) GetUploadDir() string {
	return path.Join(c.System.Workdir, "uploads")
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetUploadDir(), 0o755)
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "StorePro",
		Location: "Asia/Riyadh",
		Workdir:  "/var/storepro",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-0731-4bf1-storepro-4d7e1c4f",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "storepro",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  20,
		IdleConn: 5,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/storepro/storepro.log",
	},
	Store: StoreConfig{
		FixedRate:         3.75,
		LowStockThreshold: 5,
		AdminPassword:     "admin",
	},
}

// LoadConfig reads cfile when present, falls back to the defaults and
// finally applies STOREPRO_* environment overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile == "" {
		cfile = "storepro.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(fmt.Errorf("parse config %s: %w", cfile, err))
		}
	} else if !os.IsNotExist(err) {
		panic(err)
	}
	applyEnv(cfg)
	cfg.initDirs()
	return cfg
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToInt(v)
	}
}

func setEnvFloatValue(name string, val *float64) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToFloat64(v)
	}
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("STOREPRO_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("STOREPRO_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("STOREPRO_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("STOREPRO_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("STOREPRO_WEB_PORT", &cfg.Web.Port)
	setEnvValue("STOREPRO_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("STOREPRO_DB_TYPE", &cfg.Database.Type)
	setEnvValue("STOREPRO_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("STOREPRO_DB_PORT", &cfg.Database.Port)
	setEnvValue("STOREPRO_DB_NAME", &cfg.Database.Name)
	setEnvValue("STOREPRO_DB_USER", &cfg.Database.User)
	setEnvValue("STOREPRO_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("STOREPRO_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("STOREPRO_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("STOREPRO_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvFloatValue("STOREPRO_FIXED_RATE", &cfg.Store.FixedRate)
	setEnvIntValue("STOREPRO_LOW_STOCK_THRESHOLD", &cfg.Store.LowStockThreshold)
	setEnvValue("STOREPRO_ADMIN_PASSWORD", &cfg.Store.AdminPassword)

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
}

// Print writes the effective configuration as YAML
func (c *AppConfig) Print() {
	bs, err := yaml.Marshal(c)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(bs))
}
