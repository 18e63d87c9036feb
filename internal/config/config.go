// Package config loads command-line and environment settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/domain/pivot"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RATEPIVOT_MAX_DATE
const EnvPrefix = "RATEPIVOT"

// DefaultMaxFillDays bounds a served pivot to roughly a century of days
const DefaultMaxFillDays = 36525

// ErrHelp is returned when -h/--help was requested
var ErrHelp = pflag.ErrHelp

// Config holds the settings for one invocation.
type Config struct {
	MaxDate     string `validate:"omitempty,isodate"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=json console"`
	Serve       bool
	Addr        string `validate:"required_if=Serve true"`
	CacheDir    string
	CacheTTL    time.Duration `validate:"gte=0"`
	BodyLimit   int64         `validate:"gte=0"`
	MaxFillDays int           `validate:"gte=0"`
	ShowVersion bool
}

// Load parses args (without the program name), filling unset flags from
// RATEPIVOT_* environment variables and a .env file when one exists.
// Every failure wraps apperrors.ErrInvalidArgument except ErrHelp.
func Load(args []string, usage io.Writer) (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("ratepivot", pflag.ContinueOnError)
	fs.SetOutput(usage)
	fs.String("max-date", "", "Forward-fill up to (not including) this YYYY-MM-DD date; defaults to the latest input date")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "json", "Log format (json, console)")
	fs.Bool("serve", false, "Serve POST /pivot over HTTP instead of reading stdin")
	fs.String("addr", ":8080", "Listen address in serve mode")
	fs.String("cache-dir", "", "Badger directory for cached results in serve mode; empty keeps them in memory")
	fs.Duration("cache-ttl", 10*time.Minute, "How long cached results are kept in serve mode")
	fs.Int64("body-limit", 10<<20, "Maximum request body size in bytes in serve mode")
	fs.Int("max-fill-days", DefaultMaxFillDays, "Maximum calendar days forward-filled per currency in serve mode; 0 disables the cap")
	fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", apperrors.ErrInvalidArgument, fs.Args())
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &Config{
		MaxDate:     v.GetString("max-date"),
		LogLevel:    strings.ToLower(v.GetString("log-level")),
		LogFormat:   strings.ToLower(v.GetString("log-format")),
		Serve:       v.GetBool("serve"),
		Addr:        v.GetString("addr"),
		CacheDir:    v.GetString("cache-dir"),
		CacheTTL:    v.GetDuration("cache-ttl"),
		BodyLimit:   v.GetInt64("body-limit"),
		MaxFillDays: v.GetInt("max-fill-days"),
		ShowVersion: v.GetBool("version"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return pivot.MatchesDatePattern(fl.Field().String())
	})
	return v
}

// Validate checks every field, naming the offending value in the error
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "MaxDate":
			msgs = append(msgs, fmt.Sprintf("max date %q must match YYYY-MM-DD", c.MaxDate))
		default:
			msgs = append(msgs, fmt.Sprintf("%s %v fails %s", strings.ToLower(fe.Field()), fe.Value(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidArgument, strings.Join(msgs, "; "))
}
