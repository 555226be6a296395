// Package config resolves the exportsync settings once at startup from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"exportsync/pkg/sheets"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// DefaultSpreadsheetID is used when GOOGLE_SHEET_ID is unset. Builds may set
// it with -ldflags "-X exportsync/pkg/config.DefaultSpreadsheetID=...".
var DefaultSpreadsheetID = ""

// Config holds every setting. Fields are filled from the variable named in
// the env tag, falling back to the default tag when the variable is unset.
type Config struct {
	// CredentialsFile is the service account JSON key.
	CredentialsFile string `env:"GOOGLE_SERVICE_ACCOUNT_JSON" default:"service-account.json"`
	SpreadsheetID   string `env:"GOOGLE_SHEET_ID"`
	// TargetSheet receives the first extracted sheet. Set it to an empty
	// value to sync every sheet to a worksheet of the same name.
	TargetSheet string `env:"GOOGLE_SHEET_TAB" default:"Sheet2"`

	PolicyFile string `env:"EXPORTSYNC_POLICY_FILE"`
	HistoryDB  string `env:"EXPORTSYNC_HISTORY_DB" default:"exportsync.sqlite3"`
	OutputJSON string `env:"EXPORTSYNC_OUTPUT_JSON" default:"exported_data.json"`

	DownloadDir     string        `env:"EXPORTSYNC_DOWNLOAD_DIR" default:"."`
	DownloadPattern string        `env:"EXPORTSYNC_DOWNLOAD_PATTERN" default:"*.xlsx"`
	DownloadTimeout time.Duration `env:"EXPORTSYNC_DOWNLOAD_TIMEOUT" default:"30s"`

	Clear        bool `env:"EXPORTSYNC_CLEAR" default:"true"`
	DeleteSource bool `env:"EXPORTSYNC_DELETE_SOURCE" default:"true"`

	ListenAddress string `env:"LISTEN_ADDRESS" default:":8080"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`

	ValueInputOption  string `env:"SHEETS_VALUE_INPUT_OPTION" default:"RAW"`
	RequestsPerMinute int    `env:"SHEETS_REQUESTS_PER_MINUTE" default:"60"`
}

// Load reads an optional .env file, then the environment, and validates the
// result. Variables already present in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.WithError(err).Debug("No .env file loaded")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = DefaultSpreadsheetID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("env")
		if name == "" || !v.Field(i).CanSet() {
			continue
		}

		value, set := os.LookupEnv(name)
		// Strings may be deliberately emptied; other kinds need a value.
		if !set || (value == "" && field.Type.Kind() != reflect.String) {
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.ValueInputOption {
	case sheets.ValueInputRaw, sheets.ValueInputUserEntered:
	default:
		errs = append(errs, fmt.Errorf("SHEETS_VALUE_INPUT_OPTION must be %s or %s, got %q",
			sheets.ValueInputRaw, sheets.ValueInputUserEntered, c.ValueInputOption))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("SHEETS_REQUESTS_PER_MINUTE must not be negative"))
	}
	if c.DownloadTimeout < 0 {
		errs = append(errs, errors.New("EXPORTSYNC_DOWNLOAD_TIMEOUT must not be negative"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len([]rune(c.TargetSheet)) > 100 {
		errs = append(errs, errors.New("GOOGLE_SHEET_TAB must be at most 100 characters"))
	}
	return errors.Join(errs...)
}

// ValidateSync checks the settings needed to reach the spreadsheet service.
func (c *Config) ValidateSync() error {
	var errs []error
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		errs = append(errs, errors.New("GOOGLE_SHEET_ID is required"))
	}
	if c.CredentialsFile == "" {
		errs = append(errs, errors.New("GOOGLE_SERVICE_ACCOUNT_JSON is required"))
	} else if _, err := os.Stat(c.CredentialsFile); err != nil {
		errs = append(errs, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the configured logrus level, info when unparsable.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
