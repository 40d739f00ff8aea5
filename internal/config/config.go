package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tradesim.
type Config struct {
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
	Account      Account      `yaml:"account"`
	Prices       Prices       `yaml:"prices"`
	AlphaVantage AlphaVantage `yaml:"alphavantage"`
	Alpaca       Alpaca       `yaml:"alpaca"`
	Model        Model        `yaml:"model"`
	Storage      Storage      `yaml:"storage"`
	Trading      Trading      `yaml:"trading"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Account seeds the simulated account.
type Account struct {
	StartingBalance string   `yaml:"starting_balance"`
	Watchlist       []string `yaml:"watchlist"`
}

// Prices selects and tunes the price source.
type Prices struct {
	Provider        string        `yaml:"provider"` // alphavantage, alpaca or parquet
	HistoryPoints   int           `yaml:"history_points"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	Retries         int           `yaml:"retries"`
	Timeout         time.Duration `yaml:"timeout"`
	FallbackSeed    uint64        `yaml:"fallback_seed"`
}

// AlphaVantage holds credentials and endpoint for the Alpha Vantage API.
type AlphaVantage struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Model locates the prediction model artifact. An empty Path disables the
// model and every prediction uses the heuristic.
type Model struct {
	Path          string  `yaml:"path"`
	SharedLibrary string  `yaml:"shared_library"`
	InputName     string  `yaml:"input_name"`
	OutputName    string  `yaml:"output_name"`
	InputMean     float64 `yaml:"input_mean"`
	InputStd      float64 `yaml:"input_std"`
	OutputMean    float64 `yaml:"output_mean"`
	OutputStd     float64 `yaml:"output_std"`
}

// Storage holds paths for the order journal and offline history.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Trading defines pre-trade risk parameters.
type Trading struct {
	MaxPositionPct float64 `yaml:"max_position_pct"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// DefaultPath is used when TRADESIM_CONFIG is not set.
const DefaultPath = "config/tradesim.yaml"

// Path returns the config file path, honouring TRADESIM_CONFIG.
func Path() string {
	if p := os.Getenv("TRADESIM_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server:  Server{Host: "127.0.0.1", Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
		Account: Account{
			StartingBalance: "10000",
			Watchlist:       []string{"AAPL", "GOOGL", "TSLA"},
		},
		Prices: Prices{
			Provider:        "alphavantage",
			HistoryPoints:   30,
			// Alpha Vantage's free tier allows 5 calls per minute. A full
			// prediction refresh costs a quote and a history call per symbol,
			// so with the default watchlist the last symbol of the first
			// refresh falls back to the heuristic. Raise this for paid keys.
			RateLimitPerMin: 5,
			Retries:         1,
			Timeout:         10 * time.Second,
		},
		AlphaVantage: AlphaVantage{BaseURL: "https://www.alphavantage.co/query"},
		Alpaca:       Alpaca{Feed: "iex"},
		Model: Model{
			InputName:  "input",
			OutputName: "output",
			InputStd:   1,
			OutputStd:  1,
		},
		Storage: Storage{DataDir: "data", SQLitePath: ":memory:"},
	}
}

// Load reads the YAML configuration file at the given path on top of the
// defaults, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// CallsPerRefresh is the number of provider calls one prediction refresh of
// the watchlist makes: a quote and a history per symbol.
func (c *Config) CallsPerRefresh() int {
	return 2 * len(c.Account.Watchlist)
}

// RateLimitShort reports whether the local rate limit is too low for a
// full watchlist refresh, in which case some symbols resolve to the
// heuristic and orders in the same minute may fill at synthetic prices.
func (c *Config) RateLimitShort() bool {
	return c.Prices.RateLimitPerMin > 0 && c.Prices.RateLimitPerMin < c.CallsPerRefresh()
}

// LoadOrDefault behaves like Load but falls back to the defaults (plus env
// overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return cfg, err
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("PRICE_PROVIDER"); v != "" {
		cfg.Prices.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}

	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		cfg.Model.SharedLibrary = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
