package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// UserServiceConfig holds the configuration for the user service.
type UserServiceConfig struct {
	Server ServerConfig `envPrefix:"SERVER_"`
	Mongo  MongoConfig  `envPrefix:"MONGO_"`
	Token  TokenConfig  `envPrefix:"TOKEN_"`
	Consul ConsulConfig `envPrefix:"CONSUL_"`
	Mail   MailConfig   `envPrefix:"MAILER_"`

	// AppEmailVerificationURL is the frontend page a verification link
	// lands on; the raw token is appended as a query parameter.
	AppEmailVerificationURL string `env:"APP_EMAIL_VERIFICATION_URL"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8081"`
}

// MongoConfig holds the MongoDB connection configuration.
type MongoConfig struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"courselab_users"`
}

// TokenConfig holds the JWT secrets shared with the identity collaborator.
type TokenConfig struct {
	Issuer                          string        `env:"ISSUER"            envDefault:"courselab"`
	AccessTokenSecret               string        `env:"ACCESS_TOKEN_SECRET"`
	EmailVerificationTokenSecret    string        `env:"EMAIL_VERIFICATION_TOKEN_SECRET"`
	EmailVerificationTokenExpiresIn time.Duration `env:"EMAIL_VERIFICATION_TOKEN_EXPIRES_IN" envDefault:"24h"`
}

// ConsulConfig holds the service discovery configuration. Registration is
// skipped when no address is set.
type ConsulConfig struct {
	Address string `env:"ADDRESS"`
}

// MailConfig toggles outbound email. SMTP settings are read by the mailer
// itself.
type MailConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
}

// NewUserServiceConfig creates a UserServiceConfig instance from
// environment variables.
func NewUserServiceConfig(logger *zerolog.Logger) *UserServiceConfig {
	cfg, err := env.ParseAs[UserServiceConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate user service configuration")
	}

	return &cfg
}

// validate checks if the user service configuration is valid.
func (c *UserServiceConfig) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.Token.AccessTokenSecret == "" {
		return fmt.Errorf("missing TOKEN_ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.EmailVerificationTokenSecret == "" {
		return fmt.Errorf("missing TOKEN_EMAIL_VERIFICATION_TOKEN_SECRET environment variable")
	}
	if c.Mail.Enabled && c.AppEmailVerificationURL == "" {
		return fmt.Errorf("missing APP_EMAIL_VERIFICATION_URL environment variable")
	}

	return nil
}
