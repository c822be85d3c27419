package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type CredentialStoreKind string

const (
	CredentialStoreMemory   CredentialStoreKind = "memory"
	CredentialStorePostgres CredentialStoreKind = "postgres"
)

const defaultPort = "8123"
const defaultRequestTimeout = 10 * time.Second

type Config struct {
	port                   string
	listingURL             string
	sentryDSN              string
	credentialStore        CredentialStoreKind
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	allowedOrigins         []string
	requestTimeout         time.Duration
	otelEnabled            bool
	googleCloudProject     string
	env                    environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) ListingURL() string {
	return c.listingURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) CredentialStore() CredentialStoreKind {
	return c.credentialStore
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

// Domain suffixes allowed as CORS origins
func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *Config) RequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

// Project used to link log entries to Cloud Trace. Empty outside Google Cloud.
func (c *Config) GoogleCloudProject() string {
	return c.googleCloudProject
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, credentialStore: %s, requestTimeout: %s, otelEnabled: %t, ...}",
		string(c.env),
		c.port,
		string(c.credentialStore),
		c.requestTimeout,
		c.otelEnabled,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key string, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("VIDEOFEED_ENVIRONMENT")
	if !ok {
		return missingKey("VIDEOFEED_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("VIDEOFEED_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return invalidValue("PORT", port)
	}

	var credentialStore CredentialStoreKind
	switch rawStore := os.Getenv("CREDENTIAL_STORE"); rawStore {
	case "":
		credentialStore = CredentialStorePostgres
		if env == development {
			credentialStore = CredentialStoreMemory
		}
	case string(CredentialStoreMemory):
		credentialStore = CredentialStoreMemory
	case string(CredentialStorePostgres):
		credentialStore = CredentialStorePostgres
	default:
		return invalidValue("CREDENTIAL_STORE", rawStore)
	}

	requestTimeout := defaultRequestTimeout
	if rawTimeout := os.Getenv("REQUEST_TIMEOUT"); rawTimeout != "" {
		parsed, err := time.ParseDuration(rawTimeout)
		if err != nil || parsed <= 0 {
			return invalidValue("REQUEST_TIMEOUT", rawTimeout)
		}
		requestTimeout = parsed
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTel)
		}
		otelEnabled = parsed
	}

	allowedOrigins := []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	listingURL := os.Getenv("LISTING_URL")
	sentryDSN := os.Getenv("SENTRY_DSN")
	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	googleCloudProject := os.Getenv("GOOGLE_CLOUD_PROJECT")

	if env == production || env == staging {
		if listingURL == "" {
			return missingKey("LISTING_URL")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if credentialStore == CredentialStorePostgres {
			if cloudSQLUnixSocketPath == "" {
				return missingKey("CLOUDSQL_UNIX_SOCKET")
			}
			if dbUsername == "" {
				return missingKey("DB_USERNAME")
			}
			if dbPassword == "" {
				return missingKey("DB_PASSWORD")
			}
		}
	}

	return Config{
		port:                   port,
		listingURL:             listingURL,
		sentryDSN:              sentryDSN,
		credentialStore:        credentialStore,
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		allowedOrigins:         allowedOrigins,
		requestTimeout:         requestTimeout,
		otelEnabled:            otelEnabled,
		googleCloudProject:     googleCloudProject,
		env:                    env,
	}, nil
}
