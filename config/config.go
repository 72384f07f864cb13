package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env             string
	Port            string
	ProjectID       string
	CredentialsFile string
	EmulatorHost    string
	TaskListLimit   int
	LogFile         string
	JWTSecret       string
	CORSOrigins     []string
}

// LoadDotenv loads .env into the process environment when one exists.
func LoadDotenv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// SetDefaults registers the defaults every key falls back to.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvLocal)
	v.SetDefault("PORT", "8080")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS_1", "")
	v.SetDefault("FIRESTORE_EMULATOR_HOST", "")
	v.SetDefault("TASK_LIST_LIMIT", 100)
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("CORS_ORIGINS", "")
}

// Load reads the configuration from v, which should already have flags bound.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:             strings.ToLower(v.GetString("ENV")),
		Port:            v.GetString("PORT"),
		ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS_1"),
		EmulatorHost:    v.GetString("FIRESTORE_EMULATOR_HOST"),
		TaskListLimit:   v.GetInt("TASK_LIST_LIMIT"),
		LogFile:         v.GetString("LOG_FILE"),
		JWTSecret:       v.GetString("JWT_SECRET_KEY"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}

	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return nil, fmt.Errorf("unknown ENV %q (want %s, %s or %s)", cfg.Env, EnvLocal, EnvDev, EnvProd)
	}
	if cfg.TaskListLimit < 0 {
		return nil, fmt.Errorf("TASK_LIST_LIMIT must not be negative")
	}
	if cfg.EmulatorHost == "" && cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS_1 is not set and no FIRESTORE_EMULATOR_HOST is configured")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
