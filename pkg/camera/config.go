// Package camera holds runtime-configurable capture settings and presets.
package camera

// Config holds the capture parameters applied to every capture.
// These can be modified via the dashboard API at runtime.
type Config struct {
	Width   int `json:"width"`   // Capture width in pixels
	Height  int `json:"height"`  // Capture height in pixels
	Quality int `json:"quality"` // JPEG quality 1-100

	// SaveToDisk writes a lossless copy of each capture.
	SaveToDisk bool `json:"save_to_disk"`
}

// Capture limits.
const (
	MinWidth   = 16
	MinHeight  = 16
	MaxWidth   = 4096
	MaxHeight  = 4096
	MinQuality = 1
	MaxQuality = 100
)

// DefaultQuality is the JPEG quality used for transmission.
const DefaultQuality = 60

// DefaultConfig returns 1280x720 at quality 60 without persistence.
func DefaultConfig() Config {
	return Config{
		Width:   1280,
		Height:  720,
		Quality: DefaultQuality,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 16 and 4096")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 16 and 4096")
	}
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
