package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsWithCredentials(t *testing.T) {
	cfg, err := load("", map[string]string{"BANCHO_USERNAME": "tawan475", "BANCHO_PASSWORD": "pw"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bancho.Host != "irc.ppy.sh" || cfg.Bancho.Port != 6667 || cfg.Bancho.MessageDelay != time.Second || cfg.Bancho.MessageSize != 449 {
		t.Fatalf("unexpected defaults %+v", cfg.Bancho)
	}
	if cfg.Egress.Mode != "none" || cfg.Log.Format != "legacy" {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Egress, cfg.Log)
	}
}

func TestMissingCredentials(t *testing.T) {
	_, err := load("", map[string]string{"BANCHO_USERNAME": "x"})
	if err == nil || !strings.Contains(err.Error(), "BANCHO_PASSWORD is required") {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	body := `
bancho:
  host: irc.example.org
  username: fromfile
  password: filepw
  message_delay: 2s
  channels: ["#osu", "#mp_1"]
egress:
  mode: http
  http_url: http://hook.local
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := load("", map[string]string{
		"BANCHO_CONFIG":        path,
		"BANCHO_USERNAME":      "fromenv",
		"BANCHO_MESSAGE_DELAY": "500ms",
		"BANCHO_CHANNELS":      "#a, ,#b",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bancho.Host != "irc.example.org" || cfg.Bancho.Password != "filepw" {
		t.Fatalf("file values lost: %+v", cfg.Bancho)
	}
	if cfg.Bancho.Username != "fromenv" || cfg.Bancho.MessageDelay != 500*time.Millisecond {
		t.Fatalf("env did not override: %+v", cfg.Bancho)
	}
	if len(cfg.Bancho.Channels) != 2 || cfg.Bancho.Channels[0] != "#a" || cfg.Bancho.Channels[1] != "#b" {
		t.Fatalf("unexpected channels %q", cfg.Bancho.Channels)
	}
	if cfg.Egress.Mode != "http" || cfg.Egress.HTTPURL != "http://hook.local" {
		t.Fatalf("unexpected egress %+v", cfg.Egress)
	}
}

func TestValidateEgress(t *testing.T) {
	base := map[string]string{"BANCHO_USERNAME": "u", "BANCHO_PASSWORD": "p"}
	cases := map[string]string{
		"ws":      "EGRESS_WS_URL is required",
		"auto":    "EGRESS_HTTP_URL is required",
		"carrier": "unknown EGRESS_MODE",
	}
	for mode, want := range cases {
		environ := map[string]string{"EGRESS_MODE": mode}
		for k, v := range base {
			environ[k] = v
		}
		_, err := load("", environ)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("mode %s: expected %q, got %v", mode, want, err)
		}
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml"), map[string]string{}); err == nil {
		t.Fatalf("expected read error")
	}
}
