// Package config loads service configuration from the environment.
// All values are opaque pass-through except the AI credential, whose
// absence is a fatal startup error.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	OpenAI        OpenAIConfig
	Assistant     AssistantConfig
	TurnDetection TurnDetectionConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds listener settings.
type ServiceConfig struct {
	Port        string
	MetricsPort string
}

// OpenAIConfig holds the AI-leg endpoint settings.
type OpenAIConfig struct {
	APIKey string
	URL    string
	Model  string
}

// AssistantConfig holds the persona, voice and speak-first settings.
// Instructions and Greeting are passed through verbatim.
type AssistantConfig struct {
	Voice         string
	Instructions  string
	Greeting      string
	GreetingDelay time.Duration
	Temperature   float64
}

// TurnDetectionConfig holds the endpoint's voice-activity policy.
type TurnDetectionConfig struct {
	Type              string
	Eagerness         string
	CreateResponse    bool
	InterruptResponse bool
}

// KafkaConfig holds call-event publishing settings.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel string
	LogDir   string
}

const defaultInstructions = "You are a helpful and friendly phone assistant. " +
	"Keep your answers short and conversational, as they will be spoken aloud."

// Load reads configuration from the environment, falling back to
// defaults for anything unset or unparsable.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Port:        envOrDefault("PORT", "5050"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			URL:    envOrDefault("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
			Model:  envOrDefault("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview-2025-06-03"),
		},
		Assistant: AssistantConfig{
			Voice:         envOrDefault("VOICE", "coral"),
			Instructions:  envOrDefault("SYSTEM_MESSAGE", defaultInstructions),
			Greeting:      os.Getenv("GREETING_PROMPT"),
			GreetingDelay: envOrDefaultDuration("GREETING_DELAY", time.Second),
			Temperature:   envOrDefaultFloat("TEMPERATURE", 0.6),
		},
		TurnDetection: TurnDetectionConfig{
			Type:              envOrDefault("TURN_DETECTION_TYPE", "semantic_vad"),
			Eagerness:         envOrDefault("TURN_EAGERNESS", "medium"),
			CreateResponse:    envOrDefaultBool("TURN_CREATE_RESPONSE", true),
			InterruptResponse: envOrDefaultBool("TURN_INTERRUPT_RESPONSE", true),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_CALL_EVENTS", "voice.call.events"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", "svc-voice-relay"),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("ZEROLOG_LOG_LEVEL", "info"),
			LogDir:   os.Getenv("LOG_DIR"),
		},
	}
}

// Validate checks presence of required values. The AI credential is the
// only hard requirement.
func (c *Configuration) Validate() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("missing OPENAI_API_KEY")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
