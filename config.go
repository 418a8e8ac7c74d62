package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/chartfeed/shared"
	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the markets warmed up during trading hours.
	Markets []string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// FMPBaseURL overrides the primary FMP api base url.
	FMPBaseURL string
	// FMPLegacyURL overrides the legacy FMP api base url.
	FMPLegacyURL string
	// Timeout bounds each provider request.
	Timeout time.Duration
	// LookbackDays is the default chart lookback window.
	LookbackDays int
	// Replay is the replay flag.
	Replay bool
	// ReplayDataFilepath is the filepath to the replay data.
	ReplayDataFilepath string
	// DBEndpoint is the bar sink endpoint.
	DBEndpoint string
	// DBUser is the bar sink user.
	DBUser string
	// DBPass is the bar sink user pass.
	DBPass string
	// CacheSize is the number of chart results cached.
	CacheSize int

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	switch cfg.Replay {
	case true:
		if cfg.ReplayDataFilepath == "" {
			errs = errors.Join(errs, fmt.Errorf("replay data filepath cannot be an empty string"))
		}
	case false:
		if cfg.FMPAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
		}
	}

	if cfg.Timeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("timeout cannot be negative"))
	}
	if cfg.LookbackDays < 0 || cfg.LookbackDays > shared.MaxLookbackDays {
		errs = errors.Join(errs, fmt.Errorf("lookback days must be between 0 and %d", shared.MaxLookbackDays))
	}
	if cfg.CacheSize < 0 {
		errs = errors.Join(errs, fmt.Errorf("cache size cannot be negative"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	if d, ok := value.(*time.Duration); ok {
		var def time.Duration
		if defValue != "" {
			parsed, err := time.ParseDuration(defValue)
			if err != nil {
				return fmt.Errorf("%s: parsing duration: %w", name, err)
			}
			def = parsed
		}
		flag.DurationVar(d, name, def, usage)
		return nil
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"markets", &cfg.Markets, "the markets warmed up during trading hours"},
		{"fmpapikey", &cfg.FMPAPIKey, "the FMP api key"},
		{"fmpbaseurl", &cfg.FMPBaseURL, "the primary FMP api base url"},
		{"fmplegacyurl", &cfg.FMPLegacyURL, "the legacy FMP api base url"},
		{"timeout", &cfg.Timeout, "the per request provider timeout"},
		{"lookbackdays", &cfg.LookbackDays, "the default chart lookback window in days"},
		{"replay", &cfg.Replay, "the replay flag"},
		{"replaydatafilepath", &cfg.ReplayDataFilepath, "the replay data filepath"},
		{"dbendpoint", &cfg.DBEndpoint, "the bar sink endpoint"},
		{"dbuser", &cfg.DBUser, "the bar sink user"},
		{"dbpass", &cfg.DBPass, "the bar sink user pass"},
		{"cachesize", &cfg.CacheSize, "the number of chart results cached"},
	}

	// Register command line arguments using loaded environment variables as defaults.
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
