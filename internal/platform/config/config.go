// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"domscout/internal/core/ports"
)

// EnvPrefix es el prefijo de todas las variables de entorno.
const EnvPrefix = "DOMSCOUT_"

// Config es la configuración completa de domscout.
// Orden de carga: defaults -> archivo YAML -> ENV -> flags.
type Config struct {
	// App
	Workers     int           `yaml:"workers" json:"workers"`
	RateLimit   int           `yaml:"rate_limit" json:"rate_limit"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// IO
	WorkDir        string `yaml:"work_dir" json:"work_dir"`
	ScreenshotsDir string `yaml:"screenshots_dir" json:"screenshots_dir"`
	Resolvers      string `yaml:"resolvers" json:"resolvers"`
	KeepArtifacts  bool   `yaml:"keep_artifacts" json:"keep_artifacts"`

	Log        Log                     `yaml:"log" json:"log"`
	Tools      map[string]ToolSettings `yaml:"tools" json:"tools"`
	Storage    Storage                 `yaml:"storage" json:"storage"`
	Cache      Cache                   `yaml:"cache" json:"cache"`
	Server     Server                  `yaml:"server" json:"server"`
	Resilience Resilience              `yaml:"resilience" json:"resilience"`
	Output     Output                  `yaml:"output" json:"output"`

	// ConfigFile ruta del YAML cargado (vacío = ninguno)
	ConfigFile string `yaml:"-" json:"config_file,omitempty"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ToolSettings es la sección por herramienta del YAML.
type ToolSettings struct {
	Enabled  *bool                  `yaml:"enabled" json:"enabled,omitempty"`
	ExecPath string                 `yaml:"exec_path" json:"exec_path,omitempty"`
	Timeout  time.Duration          `yaml:"timeout" json:"timeout,omitempty"`
	Args     []string               `yaml:"args" json:"args,omitempty"`
	Custom   map[string]interface{} `yaml:"custom" json:"custom,omitempty"`
}

type Storage struct {
	// Driver "sqlite" o "memory"
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
}

type Cache struct {
	// Backend "sqlite" (misma base que Storage), "redis" o "memory"
	Backend string        `yaml:"backend" json:"backend"`
	LRUSize int           `yaml:"lru_size" json:"lru_size"`
	LRUTTL  time.Duration `yaml:"lru_ttl" json:"lru_ttl"`
	Redis   Redis         `yaml:"redis" json:"redis"`
}

type Redis struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	KeyTTL   time.Duration `yaml:"key_ttl" json:"key_ttl"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
	// Mode modo de gin: "release" o "debug"
	Mode string `yaml:"mode" json:"mode"`
}

type Resilience struct {
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base" json:"backoff_base"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	BreakerThreshold  int           `yaml:"breaker_threshold" json:"breaker_threshold"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown" json:"breaker_cooldown"`
}

type Output struct {
	// JSONPath copia adicional de scored_results.json (vacío = solo en el directorio del scan)
	JSONPath      string `yaml:"json_path" json:"json_path"`
	TableDisabled bool   `yaml:"table_disabled" json:"table_disabled"`
	TopN          int    `yaml:"top_n" json:"top_n"`

	// EventsPath log JSONL de eventos del pipeline (vacío = desactivado)
	EventsPath string `yaml:"events_path" json:"events_path"`
}

// DefaultToolTimeouts son los timeouts por defecto de cada herramienta.
var DefaultToolTimeouts = map[string]time.Duration{
	"subfinder":   10 * time.Minute,
	"findomain":   10 * time.Minute,
	"assetfinder": 10 * time.Minute,
	"sublist3r":   15 * time.Minute,
	"crtsh":       2 * time.Minute,
	"dnsx":        15 * time.Minute,
	"httpx":       20 * time.Minute,
	"gau":         10 * time.Minute,
	"gospider":    15 * time.Minute,
	"gowitness":   30 * time.Minute,
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	tools := make(map[string]ToolSettings, len(DefaultToolTimeouts))
	for name, timeout := range DefaultToolTimeouts {
		tools[name] = ToolSettings{Timeout: timeout}
	}

	return Config{
		Workers:     8,
		RateLimit:   150,
		SettleDelay: 2 * time.Second,

		WorkDir:        "domscout_scans",
		ScreenshotsDir: "domscout_scans/screenshots",
		Resolvers:      "resolvers.txt",

		Log: Log{Level: "info", Format: "console"},

		Tools: tools,

		Storage: Storage{Driver: "sqlite", Path: "domscout.db"},

		Cache: Cache{
			Backend: "sqlite",
			LRUSize: 4096,
			LRUTTL:  5 * time.Minute,
			Redis: Redis{
				Addr:   "localhost:6379",
				KeyTTL: 7 * 24 * time.Hour,
			},
		},

		Server: Server{Addr: ":5000", Mode: "release"},

		Resilience: Resilience{
			MaxRetries:        3,
			BackoffBase:       500 * time.Millisecond,
			BackoffMultiplier: 2.0,
			BreakerThreshold:  5,
			BreakerCooldown:   30 * time.Second,
		},

		Output: Output{TopN: 20},
	}
}

// Load construye la configuración. fs puede ser nil (sin flags); si no,
// solo los flags cambiados por el usuario sobrescriben valores.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	path := getenv(EnvPrefix+"CONFIG", "")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	loadFromEnv(&cfg)

	if fs != nil {
		if err := applyFlags(fs, &cfg); err != nil {
			return cfg, err
		}
	}

	normalize(&cfg)
	return cfg, nil
}

// LoadFile mezcla un archivo YAML sobre cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// yaml reemplaza entradas de mapa completas: las herramientas se
	// mezclan campo a campo para conservar los timeouts por defecto.
	tools := cfg.Tools
	cfg.Tools = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg.Tools = tools
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Tools = mergeTools(tools, cfg.Tools)
	cfg.ConfigFile = path
	return nil
}

func mergeTools(base, override map[string]ToolSettings) map[string]ToolSettings {
	out := make(map[string]ToolSettings, len(base)+len(override))
	for name, ts := range base {
		out[name] = ts
	}
	for name, ts := range override {
		cur := out[name]
		if ts.Enabled != nil {
			cur.Enabled = ts.Enabled
		}
		if ts.ExecPath != "" {
			cur.ExecPath = ts.ExecPath
		}
		if ts.Timeout > 0 {
			cur.Timeout = ts.Timeout
		}
		if len(ts.Args) > 0 {
			cur.Args = ts.Args
		}
		if len(ts.Custom) > 0 {
			cur.Custom = ts.Custom
		}
		out[name] = cur
	}
	return out
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv(EnvPrefix+"WORKERS", ""); v != "" {
		cfg.Workers = parseInt(v, cfg.Workers)
	}
	if v := getenv(EnvPrefix+"RATE_LIMIT", ""); v != "" {
		cfg.RateLimit = parseInt(v, cfg.RateLimit)
	}
	if v := getenv(EnvPrefix+"SETTLE_DELAY", ""); v != "" {
		cfg.SettleDelay = parseDuration(v, cfg.SettleDelay)
	}
	if v := getenv(EnvPrefix+"WORK_DIR", ""); v != "" {
		cfg.WorkDir = v
	}
	if v := getenv(EnvPrefix+"SCREENSHOTS_DIR", ""); v != "" {
		cfg.ScreenshotsDir = v
	}
	if v := getenv(EnvPrefix+"RESOLVERS", ""); v != "" {
		cfg.Resolvers = v
	}
	if v := getenv(EnvPrefix+"KEEP_ARTIFACTS", ""); v != "" {
		cfg.KeepArtifacts = parseBool(v)
	}
	if v := getenv(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvPrefix+"LOG_FORMAT", ""); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv(EnvPrefix+"DB_PATH", ""); v != "" {
		cfg.Storage.Path = v
	}
	if v := getenv(EnvPrefix+"STORAGE_DRIVER", ""); v != "" {
		cfg.Storage.Driver = v
	}
	if v := getenv(EnvPrefix+"CACHE_BACKEND", ""); v != "" {
		cfg.Cache.Backend = v
	}
	if v := getenv(EnvPrefix+"REDIS_ADDR", ""); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := getenv(EnvPrefix+"REDIS_PASSWORD", ""); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := getenv(EnvPrefix+"REDIS_DB", ""); v != "" {
		cfg.Cache.Redis.DB = parseInt(v, cfg.Cache.Redis.DB)
	}
	if v := getenv(EnvPrefix+"SERVER_ADDR", ""); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv(EnvPrefix+"MAX_RETRIES", ""); v != "" {
		cfg.Resilience.MaxRetries = parseInt(v, cfg.Resilience.MaxRetries)
	}

	// Formato: DOMSCOUT_TOOLS_SUBFINDER_ENABLED=false
	//          DOMSCOUT_TOOLS_HTTPX_PATH=/usr/bin/httpx-toolkit
	//          DOMSCOUT_TOOLS_GOWITNESS_TIMEOUT=45m
	for name, ts := range cfg.Tools {
		prefix := EnvPrefix + "TOOLS_" + strings.ToUpper(name) + "_"

		if v := getenv(prefix+"ENABLED", ""); v != "" {
			enabled := parseBool(v)
			ts.Enabled = &enabled
		}
		if v := getenv(prefix+"PATH", ""); v != "" {
			ts.ExecPath = v
		}
		if v := getenv(prefix+"TIMEOUT", ""); v != "" {
			ts.Timeout = parseDuration(v, ts.Timeout)
		}
		cfg.Tools[name] = ts
	}
}

// RegisterFlags declara los flags compartidos por los comandos.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.String("config", "", "YAML config file")
	fs.IntP("workers", "w", d.Workers, "Max concurrent tools per stage")
	fs.IntP("rate-limit", "l", d.RateLimit, "Requests per second passed to httpx")
	fs.Duration("settle-delay", d.SettleDelay, "Delay before file-dependent stages")
	fs.String("work-dir", d.WorkDir, "Base directory for per-scan working directories")
	fs.String("screenshots-dir", d.ScreenshotsDir, "Directory where gowitness stores screenshots")
	fs.StringP("resolvers", "r", d.Resolvers, "Resolvers file for dnsx")
	fs.Bool("keep-artifacts", d.KeepArtifacts, "Keep intermediate tool files after the scan")
	fs.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "Log format (console, json)")
	fs.String("db", d.Storage.Path, "SQLite database path")
	fs.String("cache", d.Cache.Backend, "Status cache backend (sqlite, redis, memory)")
	fs.String("redis-addr", d.Cache.Redis.Addr, "Redis address for the redis cache backend")
	fs.StringSlice("disable", nil, "Tools to disable (e.g. --disable sublist3r,gospider)")
	fs.StringP("output", "o", "", "Also write scored results to this JSON file")
	fs.Bool("no-table", false, "Do not print the results table")
	fs.Int("top", d.Output.TopN, "Rows shown in the results table")
	fs.String("events", "", "Append pipeline events as JSON lines to this file")
}

// applyFlags copia a cfg los flags que el usuario cambió explícitamente.
func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return err == nil && f != nil && f.Changed
	}

	if changed("workers") {
		cfg.Workers, err = fs.GetInt("workers")
	}
	if changed("rate-limit") {
		cfg.RateLimit, err = fs.GetInt("rate-limit")
	}
	if changed("settle-delay") {
		cfg.SettleDelay, err = fs.GetDuration("settle-delay")
	}
	if changed("work-dir") {
		cfg.WorkDir, err = fs.GetString("work-dir")
	}
	if changed("screenshots-dir") {
		cfg.ScreenshotsDir, err = fs.GetString("screenshots-dir")
	}
	if changed("resolvers") {
		cfg.Resolvers, err = fs.GetString("resolvers")
	}
	if changed("keep-artifacts") {
		cfg.KeepArtifacts, err = fs.GetBool("keep-artifacts")
	}
	if changed("log-level") {
		cfg.Log.Level, err = fs.GetString("log-level")
	}
	if changed("log-format") {
		cfg.Log.Format, err = fs.GetString("log-format")
	}
	if changed("db") {
		cfg.Storage.Path, err = fs.GetString("db")
	}
	if changed("cache") {
		cfg.Cache.Backend, err = fs.GetString("cache")
	}
	if changed("redis-addr") {
		cfg.Cache.Redis.Addr, err = fs.GetString("redis-addr")
	}
	if changed("output") {
		cfg.Output.JSONPath, err = fs.GetString("output")
	}
	if changed("no-table") {
		cfg.Output.TableDisabled, err = fs.GetBool("no-table")
	}
	if changed("top") {
		cfg.Output.TopN, err = fs.GetInt("top")
	}
	if changed("events") {
		cfg.Output.EventsPath, err = fs.GetString("events")
	}
	if changed("addr") {
		cfg.Server.Addr, err = fs.GetString("addr")
	}
	if changed("disable") {
		var names []string
		names, err = fs.GetStringSlice("disable")
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			ts := cfg.Tools[name]
			disabled := false
			ts.Enabled = &disabled
			cfg.Tools[name] = ts
		}
	}

	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	return nil
}

func normalize(c *Config) {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 150
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.WorkDir == "" {
		c.WorkDir = "domscout_scans"
	}
	if c.ScreenshotsDir == "" {
		c.ScreenshotsDir = c.WorkDir + "/screenshots"
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = c.Storage.Driver
	}
	if c.Cache.LRUSize <= 0 {
		c.Cache.LRUSize = 4096
	}
	if c.Resilience.MaxRetries < 0 {
		c.Resilience.MaxRetries = 0
	}
	if c.Resilience.BackoffBase <= 0 {
		c.Resilience.BackoffBase = 500 * time.Millisecond
	}
	if c.Resilience.BackoffMultiplier < 1.0 {
		c.Resilience.BackoffMultiplier = 2.0
	}
	if c.Output.TopN <= 0 {
		c.Output.TopN = 20
	}
}

// Validate verifica combinaciones que normalize no puede corregir.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Backend {
	case "sqlite":
		if c.Storage.Driver != "sqlite" {
			return fmt.Errorf("cache backend sqlite requires storage driver sqlite")
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache backend redis requires redis.addr")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// ToolConfigs convierte las secciones de herramientas al formato de ports.
func (c Config) ToolConfigs() map[string]ports.ToolConfig {
	out := make(map[string]ports.ToolConfig, len(c.Tools))
	for name, ts := range c.Tools {
		tc := ports.DefaultToolConfig()
		if ts.Enabled != nil {
			tc.Enabled = *ts.Enabled
		}
		tc.ExecPath = ts.ExecPath
		if ts.Timeout > 0 {
			tc.Timeout = ts.Timeout
		}
		tc.Args = ts.Args
		for k, v := range ts.Custom {
			tc.Custom[k] = v
		}
		out[name] = tc
	}
	return out
}

// ToolEnabled indica si la herramienta no fue deshabilitada.
func (c Config) ToolEnabled(name string) bool {
	ts, ok := c.Tools[name]
	return !ok || ts.Enabled == nil || *ts.Enabled
}

// ToJSON serializa la configuración a JSON (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

// parseDuration acepta "30s" o un entero en segundos.
func parseDuration(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if i, err := strconv.Atoi(v); err == nil {
		return time.Duration(i) * time.Second
	}
	return def
}
