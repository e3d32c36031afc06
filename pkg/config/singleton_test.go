package config

import "testing"

func TestSetAndGetConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	cfg := validConfig()
	SetConfig(&cfg)

	got := GetConfig()
	if got == nil {
		t.Fatal("GetConfig() returned nil after SetConfig")
	}
	if got.Policy.Mode != DefaultPolicyMode {
		t.Errorf("policy mode = %q, want %q", got.Policy.Mode, DefaultPolicyMode)
	}
}

func TestMustGetConfigPanicsUninitialized(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() should panic when uninitialized")
		}
	}()
	MustGetConfig()
}

func TestReloadConfigKeepsPreviousOnError(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	cfg := validConfig()
	SetConfig(&cfg)

	if err := ReloadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("ReloadConfig() should fail for a missing file")
	}
	if GetConfig() == nil {
		t.Error("failed reload must not clear the active configuration")
	}
}
