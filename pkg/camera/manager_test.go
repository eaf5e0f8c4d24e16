package camera

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if cfg.Quality != 60 {
		t.Errorf("Quality = %d, want 60", cfg.Quality)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		preset := GetPreset(name)
		if preset == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := preset.Validate(); len(errs) != 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestManagerUpdateConfig(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]interface{}
		want    Config
		wantErr string
	}{
		{
			name:   "quality from json number",
			params: map[string]interface{}{"quality": float64(85)},
			want:   Config{Width: 1280, Height: 720, Quality: 85},
		},
		{
			name:   "preset then override",
			params: map[string]interface{}{"preset": "vga", "save_to_disk": true},
			want:   Config{Width: 640, Height: 480, Quality: 60, SaveToDisk: true},
		},
		{
			name:    "unknown preset",
			params:  map[string]interface{}{"preset": "8k"},
			wantErr: "unknown preset",
		},
		{
			name:    "unknown key",
			params:  map[string]interface{}{"zoom": 2.0},
			wantErr: "unknown setting",
		},
		{
			name:    "invalid quality",
			params:  map[string]interface{}{"quality": 0},
			wantErr: "validation failed",
		},
		{
			name:    "fractional quality",
			params:  map[string]interface{}{"quality": 80.9},
			wantErr: "not a whole number",
		},
		{
			name:    "width beyond int",
			params:  map[string]interface{}{"width": 1e300},
			wantErr: "out of range",
		},
		{
			name:    "fractional json number",
			params:  map[string]interface{}{"height": json.Number("480.5")},
			wantErr: "not a whole number",
		},
		{
			name:    "string width",
			params:  map[string]interface{}{"width": "640"},
			wantErr: "expected a number",
		},
		{
			name:   "whole json number",
			params: map[string]interface{}{"width": json.Number("1920"), "height": json.Number("1080")},
			want:   Config{Width: 1920, Height: 1080, Quality: DefaultQuality},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(DefaultConfig())
			err := m.UpdateConfig(tc.params)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				if m.GetConfig() != DefaultConfig() {
					t.Error("config should be unchanged after a failed update")
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateConfig: %v", err)
			}
			if got := m.GetConfig(); got != tc.want {
				t.Errorf("config = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestManagerCallback(t *testing.T) {
	m := NewManager(DefaultConfig())
	var applied Config
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	if err := m.SetConfig(VGAConfig()); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if applied != VGAConfig() {
		t.Errorf("callback got %+v", applied)
	}

	m.OnConfigChange = func(Config) error { return errors.New("busy") }
	if err := m.SetConfig(DefaultConfig()); err == nil {
		t.Error("expected callback error to propagate")
	}
}
