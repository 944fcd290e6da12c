package agent

import "testing"

func TestGetProviderResolution(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "deepseek",
		Passes: map[string]PassConfig{
			"extraction": {Provider: "gemini"},
			"narrative":  {Provider: "nonexistent"},
		},
	})

	// Per-pass override wins.
	if p := m.GetProvider("extraction"); p.Name() != "gemini" {
		t.Errorf("extraction provider = %s, want gemini", p.Name())
	}
	// Unknown override falls back to the active provider.
	if p := m.GetProvider("narrative"); p.Name() != "deepseek" {
		t.Errorf("narrative provider = %s, want deepseek", p.Name())
	}
	// No override uses the active provider.
	if p := m.GetProvider("pipeline"); p.Name() != "deepseek" {
		t.Errorf("pipeline provider = %s, want deepseek", p.Name())
	}
}

func TestGetProviderDefaultsToGemini(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "unknown"})
	if p := m.GetProvider("pipeline"); p.Name() != "gemini" {
		t.Errorf("fallback provider = %s, want gemini", p.Name())
	}
}

func TestSetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"})

	if err := m.SetGlobalProvider("qwen"); err != nil {
		t.Fatalf("SetGlobalProvider(qwen): %v", err)
	}
	if m.GetActiveProvider() != "qwen" {
		t.Errorf("active = %s, want qwen", m.GetActiveProvider())
	}
	if err := m.SetGlobalProvider("openai"); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestThrottlingWrapsAllProviders(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "gemini",
		RateLimit:      RateLimitConfig{RequestsPerSecond: 2, Burst: 1},
	})
	// Name passes through the throttle wrapper.
	if p := m.GetProvider("pipeline"); p.Name() != "gemini" {
		t.Errorf("throttled provider name = %s, want gemini", p.Name())
	}
}
