package types

import "time"

// ProviderWindowCap bounds how many records a single external provider call
// may request. It caps worst-case fan-out per search.
const ProviderWindowCap = 40

// HTTPConfig holds shared HTTP settings used by the external providers.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of 429 retries per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for the paginated search orchestrator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MinResults, DefaultResults and MaxResults bound the page size.
	MinResults     int `json:"min_results" yaml:"min_results" mapstructure:"min_results"`
	DefaultResults int `json:"default_results" yaml:"default_results" mapstructure:"default_results"`
	MaxResults     int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// ProviderTimeout bounds each external provider call (default 3s).
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout" mapstructure:"provider_timeout"`

	// EagerSecondary queries both providers in parallel instead of consulting
	// the secondary only when the primary leaves the window short.
	EagerSecondary bool `json:"eager_secondary" yaml:"eager_secondary" mapstructure:"eager_secondary"`

	// EnableOpenLibrary and EnableGoogleBooks select the fallback providers.
	// OpenLibrary is primary when both are enabled.
	EnableOpenLibrary bool `json:"enable_openlibrary" yaml:"enable_openlibrary" mapstructure:"enable_openlibrary"`
	EnableGoogleBooks bool `json:"enable_google_books" yaml:"enable_google_books" mapstructure:"enable_google_books"`

	GoogleBooksAPIKey string `json:"google_books_api_key,omitempty" yaml:"google_books_api_key,omitempty" mapstructure:"google_books_api_key"`

	// ProviderCacheSize and ProviderCacheTTL configure the provider response cache.
	// A size of zero disables caching.
	ProviderCacheSize int           `json:"provider_cache_size" yaml:"provider_cache_size" mapstructure:"provider_cache_size"`
	ProviderCacheTTL  time.Duration `json:"provider_cache_ttl" yaml:"provider_cache_ttl" mapstructure:"provider_cache_ttl"`
}

// WithDefaults returns c with zero or invalid values replaced.
func (c SearchConfig) WithDefaults() SearchConfig {
	if c.MinResults < 1 {
		c.MinResults = 1
	}
	if c.MaxResults < c.MinResults {
		c.MaxResults = 40
	}
	if c.MaxResults < c.MinResults {
		c.MaxResults = c.MinResults
	}
	if c.DefaultResults < c.MinResults || c.DefaultResults > c.MaxResults {
		c.DefaultResults = min(max(20, c.MinResults), c.MaxResults)
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 3 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "bookfinder/0.1"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.ProviderCacheSize < 0 {
		c.ProviderCacheSize = 0
	}
	if c.ProviderCacheTTL <= 0 {
		c.ProviderCacheTTL = 5 * time.Minute
	}
	return c
}

// RecommendConfig holds settings for the recommendation engine.
type RecommendConfig struct {
	// DefaultCount is used when the caller asks for zero or fewer books (default 6).
	DefaultCount int `json:"default_count" yaml:"default_count" mapstructure:"default_count"`

	// CandidateLimit caps each strategy's search (default 40).
	CandidateLimit int `json:"candidate_limit" yaml:"candidate_limit" mapstructure:"candidate_limit"`

	// SimilarTimeout bounds the candidate discovery pipeline (default 1.5s).
	SimilarTimeout time.Duration `json:"similar_timeout" yaml:"similar_timeout" mapstructure:"similar_timeout"`

	AuthorScore    float64 `json:"author_score" yaml:"author_score" mapstructure:"author_score"`
	CategoryBase   float64 `json:"category_base" yaml:"category_base" mapstructure:"category_base"`
	CategoryRange  float64 `json:"category_range" yaml:"category_range" mapstructure:"category_range"`
	TextMultiplier float64 `json:"text_multiplier" yaml:"text_multiplier" mapstructure:"text_multiplier"`

	// Seed drives the cache-hit shuffle. Zero uses a fixed default.
	Seed int64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// WithDefaults returns c with zero or invalid values replaced.
func (c RecommendConfig) WithDefaults() RecommendConfig {
	if c.DefaultCount <= 0 {
		c.DefaultCount = 6
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = 40
	}
	if c.SimilarTimeout <= 0 {
		c.SimilarTimeout = 1500 * time.Millisecond
	}
	if c.AuthorScore <= 0 {
		c.AuthorScore = 5.0
	}
	if c.CategoryBase <= 0 {
		c.CategoryBase = 1.0
	}
	if c.CategoryRange <= 0 {
		c.CategoryRange = 2.0
	}
	if c.TextMultiplier <= 0 {
		c.TextMultiplier = 0.5
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// CatalogConfig holds settings for the SQLite catalog.
type CatalogConfig struct {
	// DataDir is the directory holding catalog.db.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxOpenConns bounds concurrent blocking store calls (default 4).
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
}

// PersistConfig holds settings for background catalog writes.
type PersistConfig struct {
	// MaxConcurrent bounds in-flight write tasks (default 4).
	MaxConcurrent int64 `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig mirrors logging.Config for file-based configuration.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Caller bool   `json:"caller" yaml:"caller" mapstructure:"caller"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Recommend RecommendConfig `json:"recommend" yaml:"recommend" mapstructure:"recommend"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Persist   PersistConfig   `json:"persist" yaml:"persist" mapstructure:"persist"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
