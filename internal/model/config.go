package model

import "time"

// Config holds every tunable of the tool. It is populated from defaults,
// then the config file, then MDWIZ_* environment variables, then flags.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	ITIS        ITISConfig        `yaml:"itis" mapstructure:"itis"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy" mapstructure:"taxonomy"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the HTTP transport used for ITIS calls.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ITISConfig points at the taxonomic web service.
type ITISConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the ITIS response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// TaxonomyConfig holds defaults for generated taxonomy sections.
type TaxonomyConfig struct {
	IncludeCommonNames bool   `yaml:"include_common_names" mapstructure:"include_common_names"`
	Thesaurus          string `yaml:"thesaurus" mapstructure:"thesaurus"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultITISBaseURL is the public ITIS SOAP/XML web service.
const DefaultITISBaseURL = "https://www.itis.gov/ITISWebService/services/ITISService/"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "mdwiz/0.3 (+https://github.com/mdwiz/mdwiz)",
			MaxBodyBytes: 5_000_000,
			MaxRetries:   3,
		},
		ITIS: ITISConfig{
			BaseURL:           DefaultITISBaseURL,
			RequestsPerSecond: 4,
			Burst:             4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".mdwiz-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Taxonomy: TaxonomyConfig{
			Thesaurus: "None",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
