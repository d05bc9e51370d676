package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "ACTIVITY_AGGREGATOR_CONFIG"
	githubUserEnv   = "GITHUB_USERNAME"
	githubTokenEnv  = "GITHUB_TOKEN"
	noteUserEnv     = "NOTE_COM_USERNAME"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	cronSecretEnv   = "CRON_SECRET"
	portEnv         = "PORT"

	defaultInterval = 24 * time.Hour
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Content   ContentConfig   `yaml:"content"`
	Server    ServerConfig    `yaml:"server"`
	GitHub    GitHubConfig    `yaml:"github"`
	Note      NoteConfig      `yaml:"note"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ContentConfig locates the artifact directories.
type ContentConfig struct {
	Dir     string `yaml:"dir"`
	DataDir string `yaml:"dataDir"`
}

// ServerConfig describes the HTTP trigger surface.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	CronSecret string `yaml:"cronSecret"`
}

// GitHubConfig describes the code-activity source account.
type GitHubConfig struct {
	Username       string `yaml:"username"`
	Token          string `yaml:"token"`
	APIURL         string `yaml:"apiUrl"`
	ReposLimit     int    `yaml:"reposLimit"`
	CommitsPerRepo int    `yaml:"commitsPerRepo"`
}

// NoteConfig describes the article source account.
type NoteConfig struct {
	Username     string `yaml:"username"`
	BaseURL      string `yaml:"baseUrl"`
	FetchDelayMS int    `yaml:"fetchDelayMs"`
}

// FetchDelay resolves the inter-request delay for article detail fetches.
func (n NoteConfig) FetchDelay() time.Duration {
	return time.Duration(n.FetchDelayMS) * time.Millisecond
}

// GeminiConfig defines how to contact the text-generation API.
type GeminiConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	BatchSize    int    `yaml:"batchSize"`
	BatchDelayMS int    `yaml:"batchDelayMs"`
	MaxRetries   int    `yaml:"maxRetries"`
	RetryDelayMS int    `yaml:"retryDelayMs"`
}

// BatchDelay resolves the pause between summarization batches.
func (g GeminiConfig) BatchDelay() time.Duration {
	return time.Duration(g.BatchDelayMS) * time.Millisecond
}

// RetryDelay resolves the linear backoff unit for rate-limit retries.
func (g GeminiConfig) RetryDelay() time.Duration {
	return time.Duration(g.RetryDelayMS) * time.Millisecond
}

// SchedulerConfig defines how often the watch mode re-runs the pipeline.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// Every resolves the configured interval, falling back to once a day.
func (s SchedulerConfig) Every() time.Duration {
	if s.Interval == "" {
		return defaultInterval
	}
	every, err := time.ParseDuration(s.Interval)
	if err != nil || every <= 0 {
		log.Printf("config: invalid scheduler interval %q, reverting to %s", s.Interval, defaultInterval)
		return defaultInterval
	}
	return every
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(githubUserEnv); v != "" {
		c.GitHub.Username = v
	}

	if v := os.Getenv(githubTokenEnv); v != "" {
		c.GitHub.Token = v
	}

	if v := os.Getenv(noteUserEnv); v != "" {
		c.Note.Username = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(cronSecretEnv); v != "" {
		c.Server.CronSecret = v
	}

	if v := os.Getenv(portEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Content.Dir != "" {
		base.Content.Dir = override.Content.Dir
	}
	if override.Content.DataDir != "" {
		base.Content.DataDir = override.Content.DataDir
	}

	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}
	if override.Server.CronSecret != "" {
		base.Server.CronSecret = override.Server.CronSecret
	}

	if override.GitHub.Username != "" {
		base.GitHub.Username = override.GitHub.Username
	}
	if override.GitHub.Token != "" {
		base.GitHub.Token = override.GitHub.Token
	}
	if override.GitHub.APIURL != "" {
		base.GitHub.APIURL = override.GitHub.APIURL
	}
	if override.GitHub.ReposLimit != 0 {
		base.GitHub.ReposLimit = override.GitHub.ReposLimit
	}
	if override.GitHub.CommitsPerRepo != 0 {
		base.GitHub.CommitsPerRepo = override.GitHub.CommitsPerRepo
	}

	if override.Note.Username != "" {
		base.Note.Username = override.Note.Username
	}
	if override.Note.BaseURL != "" {
		base.Note.BaseURL = override.Note.BaseURL
	}
	if override.Note.FetchDelayMS != 0 {
		base.Note.FetchDelayMS = override.Note.FetchDelayMS
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.BatchSize != 0 {
		base.Gemini.BatchSize = override.Gemini.BatchSize
	}
	if override.Gemini.BatchDelayMS != 0 {
		base.Gemini.BatchDelayMS = override.Gemini.BatchDelayMS
	}
	if override.Gemini.MaxRetries != 0 {
		base.Gemini.MaxRetries = override.Gemini.MaxRetries
	}
	if override.Gemini.RetryDelayMS != 0 {
		base.Gemini.RetryDelayMS = override.Gemini.RetryDelayMS
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Content: ContentConfig{Dir: "content/research", DataDir: "data"},
		Server:  ServerConfig{Port: 8080},
		GitHub: GitHubConfig{
			APIURL:         "https://api.github.com",
			ReposLimit:     10,
			CommitsPerRepo: 5,
		},
		Note: NoteConfig{
			BaseURL:      "https://note.com",
			FetchDelayMS: 500,
		},
		Gemini: GeminiConfig{
			Endpoint:     "https://generativelanguage.googleapis.com",
			Model:        "gemini-2.0-flash",
			BatchSize:    5,
			BatchDelayMS: 1000,
			MaxRetries:   2,
			RetryDelayMS: 3000,
		},
		Scheduler: SchedulerConfig{Interval: "24h"},
	}
}
