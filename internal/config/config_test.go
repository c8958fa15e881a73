package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("BITELOG_SESSIONS_DIR", filepath.Join(t.TempDir(), "sessions"))

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.FlushInterval != 10*time.Millisecond || cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("intervals = %v, %v", cfg.FlushInterval, cfg.PollInterval)
	}
	if cfg.ProbeTimeout != 1500*time.Millisecond {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}
	if cfg.VideoExt != ".mjpeg" || cfg.DefaultCategory != "none" {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := os.Stat(cfg.SessionsDir); err != nil {
		t.Errorf("sessions dir not created: %v", err)
	}
}

func TestLoadFileValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
sessions_dir = "`+filepath.ToSlash(filepath.Join(dir, "s"))+`"
video_ext = "mov"
flush_interval = "20ms"
camera_fps = 60
default_category = "eating"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.VideoExt != ".mov" {
		t.Errorf("VideoExt = %q", cfg.VideoExt)
	}
	if cfg.FlushInterval != 20*time.Millisecond || cfg.CameraFPS != 60 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DefaultCategory != "eating" || cfg.Path != path {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MotionHz != DefaultMotionHz {
		t.Errorf("MotionHz = %d", cfg.MotionHz)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `sessions_dir = "`+filepath.ToSlash(filepath.Join(dir, "file"))+`"`)
	t.Setenv("BITELOG_SESSIONS_DIR", filepath.Join(dir, "env"))
	t.Setenv("BITELOG_MOTION_HZ", "50")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !strings.HasSuffix(cfg.SessionsDir, "env") || cfg.MotionHz != 50 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	t.Setenv("BITELOG_SESSIONS_DIR", t.TempDir())
	path := writeConfig(t, `poll_interval = "-1s"`)
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("err = %v", err)
	}
}
