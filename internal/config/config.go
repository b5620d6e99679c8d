package config

import (
	"context"
	"strconv"

	"github.com/jarv/justread/internal/database"
)

// Config holds the UI settings persisted in the settings table.
type Config struct {
	RefreshConcurrency int
	RefreshOnStartup   bool // Refresh all local subscriptions on startup
	ThemeName          string
	HighlightStyle     string
	SpinnerType        string
	ToastSeconds       int // How long a toast stays visible
	JustAddedHours     int // Age limit for the just added section (local backend)
}

// Setting keys
const (
	KeyRefreshConcurrency = "refresh_concurrency"
	KeyRefreshOnStartup   = "refresh_on_startup"
	KeyThemeName          = "theme_name"
	KeyHighlightStyle     = "highlight_style"
	KeySpinnerType        = "spinner_type"
	KeyToastSeconds       = "toast_seconds"
	KeyJustAddedHours     = "just_added_hours"
)

func GetDefaultConfig() Config {
	return Config{
		RefreshConcurrency: 4,
		RefreshOnStartup:   true,
		ThemeName:          "dark",
		HighlightStyle:     "prefix-underline",
		SpinnerType:        "braille",
		ToastSeconds:       3,
		JustAddedHours:     24,
	}
}

func LoadConfig(ctx context.Context, queries *database.Queries) (Config, error) {
	config := GetDefaultConfig()

	loadInt(ctx, queries, KeyRefreshConcurrency, &config.RefreshConcurrency)
	loadBool(ctx, queries, KeyRefreshOnStartup, &config.RefreshOnStartup)
	loadString(ctx, queries, KeyThemeName, &config.ThemeName)
	loadString(ctx, queries, KeyHighlightStyle, &config.HighlightStyle)
	loadString(ctx, queries, KeySpinnerType, &config.SpinnerType)
	loadInt(ctx, queries, KeyToastSeconds, &config.ToastSeconds)
	loadInt(ctx, queries, KeyJustAddedHours, &config.JustAddedHours)

	config.clamp()
	return config, nil
}

func (c *Config) clamp() {
	if c.RefreshConcurrency < 1 {
		c.RefreshConcurrency = 1
	}
	if c.RefreshConcurrency > 10 {
		c.RefreshConcurrency = 10
	}
	if c.ToastSeconds < 1 {
		c.ToastSeconds = 1
	}
	if c.ToastSeconds > 30 {
		c.ToastSeconds = 30
	}
	if c.JustAddedHours < 1 {
		c.JustAddedHours = 1
	}
}

func SaveConfig(ctx context.Context, queries *database.Queries, config Config) error {
	values := []struct{ key, value string }{
		{KeyRefreshConcurrency, strconv.Itoa(config.RefreshConcurrency)},
		{KeyRefreshOnStartup, strconv.FormatBool(config.RefreshOnStartup)},
		{KeyThemeName, config.ThemeName},
		{KeyHighlightStyle, config.HighlightStyle},
		{KeySpinnerType, config.SpinnerType},
		{KeyToastSeconds, strconv.Itoa(config.ToastSeconds)},
		{KeyJustAddedHours, strconv.Itoa(config.JustAddedHours)},
	}
	for _, v := range values {
		if err := queries.SetSetting(ctx, database.SetSettingParams{Key: v.key, Value: v.value}); err != nil {
			return err
		}
	}
	return nil
}

func getSetting(ctx context.Context, queries *database.Queries, key string) (string, bool) {
	setting, err := queries.GetSetting(ctx, key)
	if err != nil {
		return "", false
	}
	return setting.Value, true
}

func loadString(ctx context.Context, queries *database.Queries, key string, dst *string) {
	if val, ok := getSetting(ctx, queries, key); ok && val != "" {
		*dst = val
	}
}

func loadInt(ctx context.Context, queries *database.Queries, key string, dst *int) {
	if val, ok := getSetting(ctx, queries, key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func loadBool(ctx context.Context, queries *database.Queries, key string, dst *bool) {
	if val, ok := getSetting(ctx, queries, key); ok {
		*dst = val == "true" || val == "yes"
	}
}
