package metrics

// Config holds metrics export options.
type Config struct {
	// Textfile is written in the Prometheus text format when the command exits.
	Textfile string `mapstructure:"textfile"`
}
