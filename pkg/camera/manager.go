package camera

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
)

// Manager holds the current capture configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current capture configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and replaces the configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values; "preset" is applied first.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "width":
			v, err := toInt(value)
			if err != nil {
				return fmt.Errorf("invalid width: %w", err)
			}
			cfg.Width = v
		case "height":
			v, err := toInt(value)
			if err != nil {
				return fmt.Errorf("invalid height: %w", err)
			}
			cfg.Height = v
		case "quality":
			v, err := toInt(value)
			if err != nil {
				return fmt.Errorf("invalid quality: %w", err)
			}
			cfg.Quality = v
		case "save_to_disk":
			if v, ok := value.(bool); ok {
				cfg.SaveToDisk = v
			}
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// toInt accepts whole numbers only; fractions and values outside int are
// rejected rather than truncated.
func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		if int64(int(val)) != val {
			return 0, fmt.Errorf("%d out of range", val)
		}
		return int(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("%v is not a whole number", val)
		}
		if val < math.MinInt || val >= -math.MinInt {
			return 0, fmt.Errorf("%v out of range", val)
		}
		return int(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not a whole number", val)
		}
		return toInt(i)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
