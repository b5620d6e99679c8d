package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	envPrefix = "JUSTREAD_"
)

var ErrInvalidProfile = errors.New("invalid profile")

// Profile selects the backend and how to reach it.
type Profile struct {
	Backend           string        `koanf:"backend"`
	APIURL            string        `koanf:"api_url"`
	WebURL            string        `koanf:"web_url"` // where /me/{slug} opens in a browser
	APIToken          string        `koanf:"api_token"`
	DBPath            string        `koanf:"db_path"`
	SubscriptionsFile string        `koanf:"subscriptions_file"`
	RateLimit         float64       `koanf:"rate_limit"` // requests per second against the remote API
	Timeout           time.Duration `koanf:"timeout"`
	Debug             bool          `koanf:"debug"`
}

// ConfigDir returns ~/.config/justread
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "justread"), nil
}

func defaultProfile() map[string]interface{} {
	values := map[string]interface{}{
		"backend":    BackendLocal,
		"rate_limit": 5.0,
		"timeout":    "15s",
		"debug":      false,
	}
	if dir, err := ConfigDir(); err == nil {
		values["db_path"] = filepath.Join(dir, "justread.db")
		values["subscriptions_file"] = filepath.Join(dir, "subscriptions")
	}
	return values
}

// LoadProfile resolves the profile from defaults, the YAML config file,
// JUSTREAD_* environment variables (after loading .env) and explicitly set
// flags, in increasing order of precedence.
func LoadProfile(cfgFile string, flags *pflag.FlagSet) (*Profile, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultProfile(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if dir, err := ConfigDir(); err == nil {
			candidate := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
			}
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// Existing environment wins over .env
	_ = godotenv.Load()

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var p Profile
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	p.APIToken = expandEnvRef(p.APIToken)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) Validate() error {
	switch p.Backend {
	case BackendLocal:
		if p.DBPath == "" {
			return fmt.Errorf("%w: db_path is required for the local backend", ErrInvalidProfile)
		}
	case BackendRemote:
		if p.APIURL == "" {
			return fmt.Errorf("%w: api_url is required for the remote backend", ErrInvalidProfile)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidProfile, p.Backend)
	}
	if p.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive", ErrInvalidProfile)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidProfile)
	}
	return nil
}

// WebBaseURL returns the base reader paths resolve against in a browser.
// An explicit web_url wins; the remote backend otherwise uses the origin of
// its API URL. The local backend has no web app and returns "".
func (p *Profile) WebBaseURL() string {
	if p.WebURL != "" {
		return strings.TrimRight(p.WebURL, "/")
	}
	if p.Backend != BackendRemote {
		return ""
	}
	u, err := url.Parse(p.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// expandEnvRef resolves a value of the form ${VAR} so tokens can live outside
// the config file. Anything else is returned unchanged.
func expandEnvRef(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		if val := os.Getenv(s[2 : len(s)-1]); val != "" {
			return val
		}
	}
	return s
}
