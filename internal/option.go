package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode selects the run mode (defaults to analyze).
func WithMode(mode string) Option {
	return func(a *application) {
		a.mode = mode
	}
}
