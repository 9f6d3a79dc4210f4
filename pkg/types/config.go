// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, retries included.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "symptomatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// DatasetColumns names the CSV header columns read by the dataset loader.
type DatasetColumns struct {
	// Disease is the column holding the disease name (default "Disease").
	Disease string `json:"disease" yaml:"disease" mapstructure:"disease"`

	// Symptoms is the column holding the comma-separated symptom list
	// (default "All Symptoms").
	Symptoms string `json:"symptoms" yaml:"symptoms" mapstructure:"symptoms"`
}

// KnowledgeBaseConfig holds settings for building the knowledge base.
type KnowledgeBaseConfig struct {
	// Dataset is an optional CSV path. When set, the knowledge base is built
	// straight from the file; otherwise it is read from the SQLite store.
	Dataset string `json:"dataset" yaml:"dataset" mapstructure:"dataset"`

	// DataDir holds the SQLite database (symptomatch.db).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// Columns selects the dataset columns.
	Columns DatasetColumns `json:"columns" yaml:"columns" mapstructure:"columns"`
}

// ClassifierBackend identifies how the external disease classifier is reached.
type ClassifierBackend string

const (
	ClassifierNone      ClassifierBackend = "none"
	ClassifierHTTP      ClassifierBackend = "http"
	ClassifierContainer ClassifierBackend = "container"
)

// ClassifierConfig holds settings for the external disease classifier.
type ClassifierConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the transport: none, http, or container.
	Backend ClassifierBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// URL is the model server endpoint for the http backend.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Image is the model image for the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// APIKey is sent as a bearer token by the http backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ClassifyTimeout bounds each classifier call made on behalf of a request.
	ClassifyTimeout time.Duration `json:"classify_timeout" yaml:"classify_timeout" mapstructure:"classify_timeout"`

	// MaxBodyBytes caps request bodies (default 1 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// RecordHistory stores every served diagnosis in the SQLite store.
	RecordHistory bool `json:"record_history" yaml:"record_history" mapstructure:"record_history"`

	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty disables CORS headers.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
}

// Config groups all settings.
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base" mapstructure:"knowledge_base"`
	Classifier    ClassifierConfig    `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Server        ServerConfig        `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the settings used when neither a config file nor
// the environment overrides them.
func DefaultConfig() Config {
	return Config{
		KnowledgeBase: KnowledgeBaseConfig{
			DataDir: "data",
			Columns: DatasetColumns{
				Disease:  "Disease",
				Symptoms: "All Symptoms",
			},
		},
		Classifier: ClassifierConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   10 * time.Second,
				UserAgent: "symptomatch/0.1",
			},
			Backend:    ClassifierNone,
			MaxRetries: 2,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ClassifyTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
	}
}
