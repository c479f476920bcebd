package types

import (
	"time"
)

// AppConfig is the root configuration for the parley gateway
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	Database DatabaseConfig `key:"database" json:"database"`
	Mail     MailConfig     `key:"mail" json:"mail"`
	LLM      LLMConfig      `key:"llm" json:"llm"`
	Pipeline PipelineConfig `key:"pipeline" json:"pipeline"`
	Gateway  GatewayConfig  `key:"gateway" json:"gateway"`
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`

	// QueryHistory enables the audit table that records executed queries.
	// Requires migrations to be run.
	QueryHistory bool `key:"queryHistory" json:"query_history"`
}

// IsConfigured returns true if a postgres host is set
func (c PostgresConfig) IsConfigured() bool {
	return c.Host != ""
}

// ----------------------------------------------------------------------------
// Mail Configuration
// ----------------------------------------------------------------------------

// MailConfig configures the Gmail collaborator. Token acquisition is
// external; the gateway only consumes a pre-authorized access token or
// token file supplied by the operator.
type MailConfig struct {
	Enabled bool   `key:"enabled" json:"enabled"`
	APIBase string `key:"apiBase" json:"api_base"` // Override for tests

	// AccessToken is a pre-authenticated bearer token. TokenFile points at a
	// JSON oauth2.Token on disk. One of the two must be set when enabled.
	AccessToken string `key:"accessToken" json:"access_token"`
	TokenFile   string `key:"tokenFile" json:"token_file"`

	RequestTimeout time.Duration `key:"requestTimeout" json:"request_timeout"`
}

// ----------------------------------------------------------------------------
// LLM Configuration
// ----------------------------------------------------------------------------

// LLMConfig configures the completion service used for query synthesis.
// The endpoint is expected to speak the OpenAI-compatible chat API.
type LLMConfig struct {
	APIBase        string        `key:"apiBase" json:"api_base"`
	APIKey         string        `key:"apiKey" json:"api_key"`
	Model          string        `key:"model" json:"model"`
	Temperature    float64       `key:"temperature" json:"temperature"`
	MaxTokens      int           `key:"maxTokens" json:"max_tokens"`
	RequestTimeout time.Duration `key:"requestTimeout" json:"request_timeout"`
}

// ----------------------------------------------------------------------------
// Pipeline Configuration
// ----------------------------------------------------------------------------

// PipelineConfig holds the tunables for the classify/synthesize/validate/
// dispatch pipeline.
type PipelineConfig struct {
	// MaxTurns bounds the conversation window fed back into prompts.
	MaxTurns int `key:"maxTurns" json:"max_turns"`

	// MaxMailResults is the ceiling a mail filter's maxResults is clamped to.
	MaxMailResults int `key:"maxMailResults" json:"max_mail_results"`

	// MutatingKeywords overrides the default list of rejected SQL keywords.
	MutatingKeywords []string `key:"mutatingKeywords" json:"mutating_keywords"`

	// TurnTimeout bounds a single pipeline run end to end.
	TurnTimeout time.Duration `key:"turnTimeout" json:"turn_timeout"`

	// Summarize enables the prose-answer LLM call after a DB dispatch.
	Summarize bool `key:"summarize" json:"summarize"`

	// FallbackChat answers unclassifiable prompts with a plain LLM chat
	// completion instead of a clarification request.
	FallbackChat bool `key:"fallbackChat" json:"fallback_chat"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}
