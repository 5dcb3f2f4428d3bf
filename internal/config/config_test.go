package config

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test solidify defaults
	if cfg.Solidify.Depth != 0 {
		t.Errorf("expected depth 0, got %f", cfg.Solidify.Depth)
	}
	if cfg.Solidify.Mode != "flat" {
		t.Errorf("expected mode 'flat', got %s", cfg.Solidify.Mode)
	}

	// Test repair defaults
	if cfg.Repair.Epsilon != 1e-6 {
		t.Errorf("expected epsilon 1e-6, got %g", cfg.Repair.Epsilon)
	}
	if !cfg.Repair.CloseHoles {
		t.Error("expected close_holes to be true by default")
	}
	if cfg.Repair.FixNormals {
		t.Error("expected fix_normals to be false by default")
	}

	// Test output defaults
	want := SuffixesConfig{Rotated: "rotated", Solid: "solid", Mirror: "mirror", Fixed: "fixed"}
	if cfg.Output.Suffixes != want {
		t.Errorf("expected suffixes %+v, got %+v", want, cfg.Output.Suffixes)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if len(cfg.Steps) != 0 {
		t.Errorf("expected no default steps, got %v", cfg.Steps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
solidify:
  depth: -1.5
  mode: mirror

repair:
  epsilon: 0.001
  close_holes: false
  fix_normals: true

output:
  dir: "out"
  format: "obj"
  suffixes:
    solid: "closed"

logging:
  level: "debug"
  log_file: "meshtools.log"

steps:
  - rotate:x:90
  - flat
  - fix
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Solidify.Depth != -1.5 {
		t.Errorf("expected depth -1.5, got %f", cfg.Solidify.Depth)
	}
	if cfg.Solidify.Mode != "mirror" {
		t.Errorf("expected mode 'mirror', got %s", cfg.Solidify.Mode)
	}
	if cfg.Repair.Epsilon != 0.001 || cfg.Repair.CloseHoles || !cfg.Repair.FixNormals {
		t.Errorf("unexpected repair config %+v", cfg.Repair)
	}
	if cfg.Output.Dir != "out" || cfg.Output.Format != "obj" {
		t.Errorf("unexpected output config %+v", cfg.Output)
	}

	// Unset suffixes keep their defaults
	if cfg.Output.Suffixes.Solid != "closed" || cfg.Output.Suffixes.Fixed != "fixed" {
		t.Errorf("unexpected suffixes %+v", cfg.Output.Suffixes)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshtools.log" {
		t.Errorf("expected log file 'meshtools.log', got %s", cfg.Logging.LogFile)
	}
	if want := []string{"rotate:x:90", "flat", "fix"}; !reflect.DeepEqual(cfg.Steps, want) {
		t.Errorf("expected steps %v, got %v", want, cfg.Steps)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "solidify:\n  depth: not a number\n  invalid syntax here\n"},
		{"unknown key", "solidify:\n  thickness: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			// Try to load - should error
			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("empty config file rejected: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("empty config file changed the defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/meshtools.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"mode", func(c *Config) { c.Solidify.Mode = "round" }},
		{"epsilon", func(c *Config) { c.Repair.Epsilon = -1 }},
		{"format", func(c *Config) { c.Output.Format = "ply" }},
		{"suffix", func(c *Config) { c.Output.Suffixes.Mirror = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create meshtools.yaml in current directory
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("solidify:\n  depth: -2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find meshtools.yaml in current directory")
	}
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return flags
}

func TestFlagSteps(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"none", nil, nil},
		{"flat", []string{"-f"}, []string{"flat"}},
		{"order is fixed", []string{"-fix", "-m", "-r", "z:45", "-flat"}, []string{"rotate:z:45", "flat", "mirror-back", "fix"}},
		{"long names", []string{"-rotate", "x:-90", "-mirror"}, []string{"rotate:x:-90", "mirror-back"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(t, tt.args...).Steps()
			if err != nil {
				t.Fatalf("Steps() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Steps() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := parseFlags(t, "-r", "x90").Steps(); err == nil {
		t.Error("expected error for rotate without axis separator")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "verbose flag",
			args: []string{"-v"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "depth flag",
			args: []string{"-d", "-0.3"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Solidify.Depth != -0.3 {
					t.Errorf("expected depth -0.3, got %f", cfg.Solidify.Depth)
				}
			},
		},
		{
			name: "normals flag",
			args: []string{"-x", "-n"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Repair.FixNormals {
					t.Error("expected fix_normals to be enabled with -n")
				}
				if !reflect.DeepEqual(cfg.Steps, []string{"fix"}) {
					t.Errorf("expected steps [fix], got %v", cfg.Steps)
				}
			},
		},
		{
			name: "output flags",
			args: []string{"-o", "result", "-dir", "build"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Name != "result" || cfg.Output.Dir != "build" {
					t.Errorf("unexpected output config %+v", cfg.Output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := applyFlags(cfg, parseFlags(t, tt.args...)); err != nil {
				t.Fatalf("applyFlags() error = %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
solidify:
  depth: -2
  mode: flat
steps: [fix]
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Flags override the config file
	flags := parseFlags(t, "-config", configPath, "-depth", "-5", "-f")
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Depth should be from flag (-5), not file (-2)
	if cfg.Solidify.Depth != -5 {
		t.Errorf("expected depth -5 from flag, got %f", cfg.Solidify.Depth)
	}
	if !reflect.DeepEqual(cfg.Steps, []string{"flat"}) {
		t.Errorf("expected steps from flags, got %v", cfg.Steps)
	}

	// Without overrides the file wins
	cfg, err = Load(parseFlags(t, "-config", configPath))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Solidify.Depth != -2 || !reflect.DeepEqual(cfg.Steps, []string{"fix"}) {
		t.Errorf("expected file values, got depth %f steps %v", cfg.Solidify.Depth, cfg.Steps)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Steps = []string{"flat:-1", "fix:normals"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("reloaded config = %+v, want %+v", loaded, cfg)
	}
}
