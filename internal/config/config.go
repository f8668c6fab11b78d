package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig 表示缺少必填的环境变量，属于启动期致命错误
var ErrMissingConfig = errors.New("missing required configuration")

// DefaultCutMarker 是正文末尾“相关内容”区块的起始标记，抓取结果在此截断
const DefaultCutMarker = "\nÀ regarder\n-"

type Config struct {
	AppPort  string
	LogLevel string

	// 两者都配置时为 HTTP 接口启用 Basic Auth
	BasicAuthUser string
	BasicAuthPass string

	// DatabaseURL 与 DatabasePassword 为必填项
	DatabaseURL      string
	DatabasePassword string
	RedisAddr        string

	FeedCron   string
	ScrapeCron string

	FeedTimeout time.Duration

	ScrapeFeedID    uint
	ScrapeMinChars  int
	ScrapeTimeout   time.Duration
	ScrapeDelay     time.Duration
	ScrapePacing    string
	ScrapeUserAgent string
	CutMarkers      []string

	NewsAPIKey        string
	NewsAPIURL        string
	SentimentAPIURL   string
	SentimentAPIToken string
	// PDFRoot 非空时 PDF 工具只允许读取该目录下的文件
	PDFRoot string
}

// Load 读取 .env、可选的 CONFIG_FILE 与环境变量；缺少必填项时返回 ErrMissingConfig
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:           v.GetString("app_port"),
		LogLevel:          v.GetString("log_level"),
		BasicAuthUser:     v.GetString("app_basic_user"),
		BasicAuthPass:     v.GetString("app_basic_pass"),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		DatabasePassword:  v.GetString("database_password"),
		RedisAddr:         v.GetString("redis_addr"),
		FeedCron:          v.GetString("feed_cron"),
		ScrapeCron:        v.GetString("scrape_cron"),
		FeedTimeout:       v.GetDuration("feed_timeout"),
		ScrapeFeedID:      v.GetUint("scrape_feed_id"),
		ScrapeMinChars:    v.GetInt("scrape_min_chars"),
		ScrapeTimeout:     v.GetDuration("scrape_timeout"),
		ScrapeDelay:       v.GetDuration("scrape_delay"),
		ScrapePacing:      strings.ToLower(v.GetString("scrape_pacing")),
		ScrapeUserAgent:   v.GetString("scrape_user_agent"),
		CutMarkers:        parseMarkers(v.GetString("scrape_cut_markers")),
		NewsAPIKey:        v.GetString("newsapi_key"),
		NewsAPIURL:        v.GetString("newsapi_url"),
		SentimentAPIURL:   v.GetString("sentiment_api_url"),
		SentimentAPIToken: v.GetString("sentiment_api_token"),
		PDFRoot:           v.GetString("pdf_root"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_port", "9000")
	v.SetDefault("log_level", "info")
	v.SetDefault("app_basic_user", "")
	v.SetDefault("app_basic_pass", "")
	v.SetDefault("database_url", "")
	v.SetDefault("database_password", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("feed_cron", "*/30 * * * *")
	v.SetDefault("scrape_cron", "15 * * * *")
	v.SetDefault("feed_timeout", 20*time.Second)
	v.SetDefault("scrape_feed_id", 3)
	v.SetDefault("scrape_min_chars", 400)
	v.SetDefault("scrape_timeout", 10*time.Second)
	v.SetDefault("scrape_delay", time.Second)
	v.SetDefault("scrape_pacing", "fixed")
	v.SetDefault("scrape_user_agent", "Mozilla/5.0")
	v.SetDefault("scrape_cut_markers", "")
	v.SetDefault("newsapi_key", "")
	v.SetDefault("newsapi_url", "https://newsapi.org/v2/everything")
	v.SetDefault("sentiment_api_url", "https://api-inference.huggingface.co/models/nlptown/bert-base-multilingual-uncased-sentiment")
	v.SetDefault("sentiment_api_token", "")
	v.SetDefault("pdf_root", "")
}

// Validate 检查必填项
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.DatabasePassword == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// PostgresDSN 把密码合并进连接串，支持 URL 形式（postgres://...）与 key=value 形式
func (c *Config) PostgresDSN() (string, error) {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("config: parse DATABASE_URL: %w", err)
		}
		user := "postgres"
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, c.DatabasePassword)
		return u.String(), nil
	}
	return c.DatabaseURL + " password=" + quoteDSNValue(c.DatabasePassword), nil
}

func quoteDSNValue(s string) string {
	if !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// parseMarkers 解析 SCRAPE_CUT_MARKERS：多个标记用 "||" 分隔，字面量 \n 表示换行
func parseMarkers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{DefaultCutMarker}
	}
	var out []string
	for _, m := range strings.Split(raw, "||") {
		m = strings.ReplaceAll(m, `\n`, "\n")
		if m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return []string{DefaultCutMarker}
	}
	return out
}
