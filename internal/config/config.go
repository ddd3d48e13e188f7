package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"commentwatch/lib/configutil"
)

type Credential struct {
	Sessdata    string `json:"sessdata"`
	BiliJct     string `json:"bili_jct"`
	Buvid3      string `json:"buvid3"`
	DedeUserID  string `json:"dedeuserid"`
	AcTimeValue string `json:"ac_time_value"`
}

type Api struct {
	BaseUrl           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	PageSize          int     `json:"page_size"`
	// DisableBrowserTransport turns off the browser-like TLS fingerprint transport.
	DisableBrowserTransport bool `json:"disable_browser_transport"`
}

const (
	TABLE_XLSX   = "xlsx"
	TABLE_SQLITE = "sqlite"
	TABLE_LIBSQL = "libsql"
)

type Table struct {
	Format          string `json:"format"`
	SqliteFile      string `json:"sqlite_file"`
	LibsqlUrl       string `json:"libsql_url"`
	LibsqlAuthToken string `json:"libsql_auth_token"`
}

type Email struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

func (e Email) Enabled() bool {
	return e.Host != "" && len(e.To) > 0
}

type Notify struct {
	FeishuWebhook string `json:"feishu_webhook"`
	Email         Email  `json:"email"`
}

type Watch struct {
	Schedule string   `json:"schedule"`
	Posts    []string `json:"posts"`
}

type Config struct {
	DataDir    string     `json:"data_dir"`
	Timezone   string     `json:"timezone"`
	Keywords   []string   `json:"keywords"`
	Credential Credential `json:"credential"`
	Api        Api        `json:"api"`
	Table      Table      `json:"table"`
	Notify     Notify     `json:"notify"`
	Watch      Watch      `json:"watch"`
}

// DefaultKeywords flag comments that talk about sponsorships or the production of the video.
// An empty keyword is ignored and never matches.
var DefaultKeywords = []string{"恰饭", "恰", "广告", "推广", "剪辑", "调色", "字幕"}

const (
	ENV_SESSDATA = "COMMENTWATCH_SESSDATA"
	ENV_BILI_JCT = "COMMENTWATCH_BILI_JCT"
)

// Load reads the config file at path (plus its .local override). A missing file is not an
// error, defaults are applied to whatever was read and credentials are overridden by the
// environment.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data/comments"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai"
	}
	if c.Keywords == nil {
		c.Keywords = DefaultKeywords
	}
	if c.Api.BaseUrl == "" {
		c.Api.BaseUrl = "https://api.bilibili.com"
	}
	if c.Api.RequestsPerSecond == 0 {
		c.Api.RequestsPerSecond = 2
	}
	if c.Api.TimeoutSeconds == 0 {
		c.Api.TimeoutSeconds = 30
	}
	if c.Api.PageSize == 0 {
		c.Api.PageSize = 20
	}
	if c.Table.Format == "" {
		c.Table.Format = TABLE_XLSX
	}
	if c.Table.SqliteFile == "" {
		c.Table.SqliteFile = "comments.db"
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "*/30 * * * *"
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(ENV_SESSDATA)); v != "" {
		c.Credential.Sessdata = v
	}
	if v := strings.TrimSpace(getenv(ENV_BILI_JCT)); v != "" {
		c.Credential.BiliJct = v
	}
}

func (c Config) Validate() error {
	switch c.Table.Format {
	case TABLE_XLSX, TABLE_SQLITE:
	case TABLE_LIBSQL:
		if c.Table.LibsqlUrl == "" {
			return fmt.Errorf("table.libsql_url is required for the libsql table format")
		}
	default:
		return fmt.Errorf("unknown table format %q", c.Table.Format)
	}
	if c.Api.PageSize < 1 || c.Api.PageSize > 49 {
		return fmt.Errorf("api.page_size must be between 1 and 49, got %d", c.Api.PageSize)
	}
	if c.Api.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}
	return nil
}
