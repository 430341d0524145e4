package conv

import (
	"testing"
	"time"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"name":    "content",
		"top_k":   float64(30),
		"limit":   20,
		"timeout": "1500ms",
		"delay":   250,
		"ids":     []any{"a", 42.0, true},
	}

	if got := ConfigGet(cfg, "name", ""); got != "content" {
		t.Errorf("ConfigGet name = %q", got)
	}
	if got := ConfigGet(cfg, "top_k", "x"); got != "x" {
		t.Errorf("ConfigGet with wrong type should fall back, got %q", got)
	}
	if got := ConfigGetInt(cfg, "top_k", 0); got != 30 {
		t.Errorf("ConfigGetInt top_k = %d", got)
	}
	if got := ConfigGetInt(cfg, "limit", 0); got != 20 {
		t.Errorf("ConfigGetInt limit = %d", got)
	}
	if got := ConfigGetInt(cfg, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt missing = %d", got)
	}
	if got := ConfigGetDuration(cfg, "timeout", 0); got != 1500*time.Millisecond {
		t.Errorf("ConfigGetDuration timeout = %v", got)
	}
	if got := ConfigGetDuration(cfg, "delay", 0); got != 250*time.Millisecond {
		t.Errorf("ConfigGetDuration delay = %v", got)
	}
	if got := SliceAnyToString(cfg["ids"]); len(got) != 2 || got[0] != "a" || got[1] != "42" {
		t.Errorf("SliceAnyToString = %v", got)
	}
}
