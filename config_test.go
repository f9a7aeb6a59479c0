package oleauto

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("OLEAUTO_HEAP_INITIAL_PAGES", "2")
	t.Setenv("OLEAUTO_HEAP_MAX_PAGES", "8")
	t.Setenv("OLEAUTO_LOCALE", "2048")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.InitialPages != 2 || cfg.MaxPages != 8 || cfg.Locale != 2048 {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
}

func TestLoadConfig_MaxBelowInitial(t *testing.T) {
	t.Setenv("OLEAUTO_HEAP_INITIAL_PAGES", "4")
	t.Setenv("OLEAUTO_HEAP_MAX_PAGES", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxPages != 4 {
		t.Errorf("MaxPages = %d, want 4", cfg.MaxPages)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("OLEAUTO_HEAP_MAX_PAGES", "lots")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for non-numeric page count")
	}
}
