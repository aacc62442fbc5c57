package logger

// Environment names recognised by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds logger settings loaded from the environment.
type Config struct {
	Service string `env:"APP_NAME" envDefault:"notifyrelay"` // Service is attached to every record as "service".
	Env     string `env:"APP_ENV" envDefault:"development"`  // Env selects the preset: development, staging or production.
	Level   string `env:"LOG_LEVEL"`                         // Level overrides the preset level: debug, info, warn, error.
	Format  string `env:"LOG_FORMAT"`                        // Format overrides the preset format: json or text.
}
