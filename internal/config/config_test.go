package config

import (
	"strings"
	"testing"
)

const minimalYAML = `
token: "123:abc"
group_chat_id: "-100200300"
admins: ["42"]
`

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Platform != "telegram" {
		t.Errorf("Platform = %q, want telegram default", cfg.Platform)
	}
	if cfg.QuestionCooldownSeconds != 60 {
		t.Errorf("QuestionCooldownSeconds = %d, want 60", cfg.QuestionCooldownSeconds)
	}
	if cfg.BroadcastDelayMillis != 50 {
		t.Errorf("BroadcastDelayMillis = %d, want 50", cfg.BroadcastDelayMillis)
	}
	if cfg.ConversationTTLMinutes != 30 {
		t.Errorf("ConversationTTLMinutes = %d, want 30", cfg.ConversationTTLMinutes)
	}
	if cfg.DB.Host != "127.0.0.1" || cfg.DB.Port != 3306 || cfg.DB.Database != "askline" || cfg.DB.User != "root" {
		t.Errorf("DB defaults = %+v", cfg.DB)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
}

func TestParse_Full(t *testing.T) {
	data := `
platform: discord
token: "tok"
group_chat_id: "C100"
admins: ["1", "2"]
question_cooldown_seconds: 120
broadcast_delay_ms: 25
conversation_ttl_minutes: -1
db:
  host: db.internal
  port: 3307
  database: askline_prod
  user: askline
  password: secret
dashboard:
  enabled: true
  port: 9090
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Platform != "discord" {
		t.Errorf("Platform = %q", cfg.Platform)
	}
	if cfg.QuestionCooldownSeconds != 120 {
		t.Errorf("QuestionCooldownSeconds = %d", cfg.QuestionCooldownSeconds)
	}
	if cfg.ConversationTTLMinutes != -1 {
		t.Errorf("ConversationTTLMinutes = %d, want -1 (eviction disabled)", cfg.ConversationTTLMinutes)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing token", "group_chat_id: \"1\"\nadmins: [\"2\"]\n", "token is required"},
		{"missing group", "token: t\nadmins: [\"2\"]\n", "group_chat_id is required"},
		{"missing admins", "token: t\ngroup_chat_id: \"1\"\n", "at least one admin is required"},
		{"bad platform", "platform: irc\ntoken: t\ngroup_chat_id: \"1\"\nadmins: [\"2\"]\n", "not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("token: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q", err)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{Admins: []string{"1", "42"}}
	if !cfg.IsAdmin("42") {
		t.Error("42 should be admin")
	}
	if cfg.IsAdmin("7") {
		t.Error("7 should not be admin")
	}
}
