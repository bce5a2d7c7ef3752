package main

import (
	"os"
	"testing"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		want     string
	}{
		{
			name:     "env var set",
			key:      "TEST_VAR_SET",
			def:      "default",
			envValue: "custom",
			want:     "custom",
		},
		{
			name:     "env var empty",
			key:      "TEST_VAR_EMPTY",
			def:      "default",
			envValue: "",
			want:     "default",
		},
		{
			name:     "env var not set",
			key:      "TEST_VAR_NOTSET",
			def:      "default",
			envValue: "",
			want:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(tt.key)

			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getenvDefault(tt.key, tt.def)
			if got != tt.want {
				t.Errorf("getenvDefault(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.want)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{value: "", want: 7},
		{value: "1048576", want: 1048576},
		{value: "0", want: 0},
		{value: "-1", wantErr: true},
		{value: "10MB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LFD_TEST_INT", tt.value)

			got, err := getenvInt("LFD_TEST_INT", 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getenvInt error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("getenvInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("LFD_ADDR", "127.0.0.1:9999")
	t.Setenv("LFD_STORAGE_DIR", "/srv/drop")
	t.Setenv("LFD_MAX_UPLOAD_BYTES", "100")
	t.Setenv("LFD_UPLOADS_PER_MINUTE", "30")
	t.Setenv("LFD_VERSION", "1.0.0")
	t.Setenv("LFD_TRUST_PROXY", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "127.0.0.1:9999" || cfg.StorageDir != "/srv/drop" {
		t.Errorf("unexpected addr/dir: %q %q", cfg.Addr, cfg.StorageDir)
	}
	if cfg.MaxUploadBytes != 100 || cfg.UploadsPerMinute != 30 {
		t.Errorf("unexpected limits: %d %d", cfg.MaxUploadBytes, cfg.UploadsPerMinute)
	}
	if cfg.Build.Version != "1.0.0" || cfg.Build.Commit != "unknown" {
		t.Errorf("unexpected build info: %+v", cfg.Build)
	}
	if cfg.TrustProxy {
		t.Error("forwarding headers must not be trusted by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfig_BadLimit(t *testing.T) {
	t.Setenv("LFD_ADDR", "127.0.0.1:9999")
	t.Setenv("LFD_MAX_UPLOAD_BYTES", "lots")

	if _, err := loadConfig(); err == nil {
		t.Error("expected error for non-numeric LFD_MAX_UPLOAD_BYTES")
	}
}

func TestBannerHostPort(t *testing.T) {
	host, port := bannerHostPort("192.168.1.20:8080")
	if host != "192.168.1.20" || port != "8080" {
		t.Errorf("got %s %s", host, port)
	}

	host, port = bannerHostPort("[::]:9000")
	if host == "::" || host == "" || port != "9000" {
		t.Errorf("wildcard host not replaced: %s %s", host, port)
	}
}
