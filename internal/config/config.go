package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Edgar   EdgarConfig   `mapstructure:"edgar"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type EdgarConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	BaseURL          string        `mapstructure:"base_url"`
	ArchiveURL       string        `mapstructure:"archive_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Throttle         time.Duration `mapstructure:"throttle"`
	FilingsPerTicker int           `mapstructure:"filings_per_ticker"`
}

type SyncConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

type CatalogConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Cron              string `mapstructure:"cron"`
	PrimaryURL        string `mapstructure:"primary_url"`
	ExchangeURL       string `mapstructure:"exchange_url"`
	LocalPath         string `mapstructure:"local_path"`
	LocalExchangePath string `mapstructure:"local_exchange_path"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.path", "filingwatch.db")
	v.SetDefault("db.max_open_conns", 5)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("edgar.enabled", true)
	v.SetDefault("edgar.base_url", "https://data.sec.gov")
	v.SetDefault("edgar.archive_url", "https://www.sec.gov/Archives/edgar/data")
	v.SetDefault("edgar.user_agent", "filingwatch/0.1 (contact: ops@example.com)")
	v.SetDefault("edgar.timeout", "15s")
	v.SetDefault("edgar.throttle", "200ms")
	v.SetDefault("edgar.filings_per_ticker", 50)
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval", "15m")
	v.SetDefault("sync.run_timeout", "5m")
	v.SetDefault("catalog.enabled", true)
	v.SetDefault("catalog.cron", "0 30 6 * * *")
	v.SetDefault("catalog.primary_url", "https://www.sec.gov/files/company_tickers.json")
	v.SetDefault("catalog.exchange_url", "https://www.sec.gov/files/company_tickers_exchange.json")
	v.SetDefault("catalog.local_path", "")
	v.SetDefault("catalog.local_exchange_path", "")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
