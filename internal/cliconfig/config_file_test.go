package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all field types",
			fileConfig: FileConfig{
				PageURL:            "http://localhost:5500/",
				Mode:               "hard",
				ChannelPath:        "/ws",
				ReconnectDelay:     "1s",
				RetryDelay:         "250ms",
				HTTPTimeout:        "30s",
				PreloadConcurrency: 2,
				Storage:            "file",
				StateDir:           "/state",
				WatchDir:           "./site",
				WatchDebounce:      "50ms",
				Output:             "out.html",
				LogLevel:           "debug",
			},
			changed: map[string]bool{},
			expected: Config{
				PageURL:            "http://localhost:5500/",
				Mode:               "hard",
				ChannelPath:        "/ws",
				ReconnectDelay:     time.Second,
				RetryDelay:         250 * time.Millisecond,
				HTTPTimeout:        30 * time.Second,
				PreloadConcurrency: 2,
				Storage:            "file",
				StateDir:           "/state",
				WatchDir:           "./site",
				WatchDebounce:      50 * time.Millisecond,
				Output:             "out.html",
				LogLevel:           "debug",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				PageURL:    "http://file.test/",
				Mode:       "hard",
				RetryDelay: "1s",
			},
			changed: map[string]bool{"url": true, "retry-delay": true},
			initial: Config{
				PageURL:    "http://flag.test/",
				RetryDelay: 20 * time.Millisecond,
			},
			expected: Config{
				PageURL:    "http://flag.test/", // unchanged because flag was set
				Mode:       "hard",
				RetryDelay: 20 * time.Millisecond,
			},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{Mode: "soft", PreloadConcurrency: 8},
			expected:   Config{Mode: "soft", PreloadConcurrency: 8},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{ReconnectDelay: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
url = "http://127.0.0.1:8080/"
mode = "hard"
retry_delay = "1s"
preload_concurrency = 4
storage = "badger"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	want := FileConfig{
		PageURL:            "http://127.0.0.1:8080/",
		Mode:               "hard",
		RetryDelay:         "1s",
		PreloadConcurrency: 4,
		Storage:            "badger",
	}
	if fc != want {
		t.Errorf("LoadFileConfig() = %+v, want %+v", fc, want)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	if _, err := LoadFileConfig("/nonexistent/path/config.toml"); err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.toml")
	if err := os.WriteFile(configPath, []byte("url = \"x\"\nthis is not valid toml\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path != "" && !strings.HasSuffix(path, filepath.Join(".liveagent", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v, want ~/.liveagent/config.toml", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
