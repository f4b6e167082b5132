package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Service.Port != "5050" {
		t.Errorf("expected default port 5050, got %s", cfg.Service.Port)
	}
	if cfg.Service.MetricsPort != "9090" {
		t.Errorf("expected default metrics port 9090, got %s", cfg.Service.MetricsPort)
	}
	if cfg.OpenAI.URL != "wss://api.openai.com/v1/realtime" {
		t.Errorf("unexpected default realtime URL: %s", cfg.OpenAI.URL)
	}
	if cfg.Assistant.Voice != "coral" {
		t.Errorf("expected default voice coral, got %s", cfg.Assistant.Voice)
	}
	if cfg.Assistant.Temperature != 0.6 {
		t.Errorf("expected default temperature 0.6, got %v", cfg.Assistant.Temperature)
	}
	if cfg.Assistant.GreetingDelay != time.Second {
		t.Errorf("expected default greeting delay 1s, got %v", cfg.Assistant.GreetingDelay)
	}
	if cfg.Assistant.Instructions == "" {
		t.Error("expected non-empty default instructions")
	}
	if cfg.TurnDetection.Type != "semantic_vad" {
		t.Errorf("expected semantic_vad, got %s", cfg.TurnDetection.Type)
	}
	if !cfg.TurnDetection.CreateResponse || !cfg.TurnDetection.InterruptResponse {
		t.Error("expected create/interrupt response enabled by default")
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.Topic != "voice.call.events" {
		t.Errorf("unexpected default topic: %s", cfg.Kafka.Topic)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VOICE", "alloy")
	t.Setenv("TEMPERATURE", "0.8")
	t.Setenv("GREETING_DELAY", "250ms")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("TURN_CREATE_RESPONSE", "false")

	cfg := Load()

	if cfg.Service.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Service.Port)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected API key from env, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Assistant.Voice != "alloy" {
		t.Errorf("expected voice alloy, got %s", cfg.Assistant.Voice)
	}
	if cfg.Assistant.Temperature != 0.8 {
		t.Errorf("expected temperature 0.8, got %v", cfg.Assistant.Temperature)
	}
	if cfg.Assistant.GreetingDelay != 250*time.Millisecond {
		t.Errorf("expected greeting delay 250ms, got %v", cfg.Assistant.GreetingDelay)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.TurnDetection.CreateResponse {
		t.Error("expected create_response disabled")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TEMPERATURE", "hot")
	t.Setenv("GREETING_DELAY", "soonish")
	t.Setenv("KAFKA_ENABLED", "maybe")

	cfg := Load()

	if cfg.Assistant.Temperature != 0.6 {
		t.Errorf("expected fallback temperature 0.6, got %v", cfg.Assistant.Temperature)
	}
	if cfg.Assistant.GreetingDelay != time.Second {
		t.Errorf("expected fallback greeting delay 1s, got %v", cfg.Assistant.GreetingDelay)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected fallback Kafka disabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Configuration{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing API key")
	}

	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
