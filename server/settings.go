package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/n9te9/go-graphql-rest-gateway/gateway"
	"github.com/n9te9/go-graphql-rest-gateway/metrics"
	"github.com/n9te9/go-graphql-rest-gateway/service"
	"github.com/n9te9/go-graphql-rest-gateway/store"
	"github.com/n9te9/go-graphql-rest-gateway/telemetry"
)

const DefaultConfigPath = "gateway.yaml"

type LogSetting struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type Settings struct {
	Gateway       gateway.GatewayOption `yaml:"gateway"`
	Posts         service.Option        `yaml:"posts"`
	Comments      service.Option        `yaml:"comments"`
	Storage       store.Option          `yaml:"storage"`
	Opentelemetry telemetry.Setting     `yaml:"opentelemetry"`
	Metrics       metrics.Option        `yaml:"metrics"`
	Log           LogSetting            `yaml:"log"`
}

// DefaultSettings runs all three components on one host with the legacy ports.
func DefaultSettings() Settings {
	return Settings{
		Gateway: gateway.GatewayOption{
			Endpoint:                    "/graphql",
			ServiceName:                 "rest-gateway",
			Port:                        4000,
			EnableHangOverRequestHeader: true,
			EnableComplementRequestID:   true,
			EnablePlayground:            true,
			MaxQueryDepth:               10,
			Upstreams: gateway.Upstreams{
				Posts:    "http://localhost:8080",
				Comments: "http://localhost:8081",
			},
		},
		Posts:    service.Option{Port: 8080},
		Comments: service.Option{Port: 8081},
		Storage:  store.Option{Driver: store.DriverMemory},
		Metrics:  metrics.Option{Path: "/metrics"},
		Log:      LogSetting{Level: "info", Format: "text"},
	}
}

// LoadSettings reads the YAML file at path over DefaultSettings and validates the
// result.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	src, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(src, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := ValidateSettings(settings); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func ValidateSettings(settings Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Init writes the default settings to path. An existing file is left untouched.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	out, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return err
	}

	return os.WriteFile(path, out, 0o644)
}

func NewLogger(w io.Writer, setting LogSetting) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(setting.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if setting.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
