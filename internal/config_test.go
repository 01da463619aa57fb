package internal

import (
	"strings"
	"testing"

	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/models"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestImportConfig_MaxBytesTooSmall(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Import.MaxBytes = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("tiny max_bytes should fail validation")
	}
}

func TestImportConfig_Policy(t *testing.T) {
	cfg := ImportConfig{CleanHTML: true, ConvertHTMLToMarkdown: true}
	p := cfg.Policy()
	if !p.CleanHTML || !p.HTMLToMarkdown {
		t.Errorf("policy = %+v", p)
	}
}

func TestGlossaryConfig_Settings(t *testing.T) {
	var s glossary.Settings = GlossaryConfig{FullMatch: true}

	if got := s.Get(glossary.SettingsScope, glossary.SettingFullMatch); got != "1" {
		t.Errorf("full match = %q, want 1", got)
	}
	if got := s.Get(glossary.SettingsScope, glossary.SettingLinkEntries); got != "0" {
		t.Errorf("link entries = %q, want 0", got)
	}
	if got := s.Get("other", glossary.SettingFullMatch); got != "" {
		t.Errorf("other scope = %q, want empty", got)
	}
	if got := s.Get(glossary.SettingsScope, "unknown"); got != "" {
		t.Errorf("unknown key = %q, want empty", got)
	}
}

func TestDefaultConfig_KeepsHTMLDefinitionBytes(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Import.CleanHTML || cfg.Import.ConvertHTMLToMarkdown {
		t.Fatalf("import policy should be off by default: %+v", cfg.Import)
	}
	in := `<p class=x>a<br>b</p>`
	out, f, err := cfg.Import.Policy().Definition(in, models.FormatHTML)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if out != in || f != models.FormatHTML {
		t.Errorf("definition = %q (%v), want %q unchanged", out, f, in)
	}
}
