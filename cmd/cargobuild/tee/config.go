package tee

import "fmt"

// Config holds settings for the rotating tee file.
type Config struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max-size"` // megabytes
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAge     int    `mapstructure:"max-age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// Enabled reports whether a tee file was configured.
func (c Config) Enabled() bool { return c.Path != "" }

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.MaxSize < 0 || c.MaxBackups < 0 || c.MaxAge < 0 {
		return fmt.Errorf("tee.max-size, tee.max-backups and tee.max-age must not be negative")
	}
	return nil
}
