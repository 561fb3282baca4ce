package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	SessionDriverFile   = "file"
	SessionDriverRedis  = "redis"
	SessionDriverMemory = "memory"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		ShutdownTimeout time.Duration
	}

	SessionConfig struct {
		// StorageKey is the single durable key the session is persisted under.
		StorageKey string
		Driver     string
		Dir        string
		RedisURL   string
	}

	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		APIURL       string
		RollbarToken string
		Server       ServerConfig
		Session      SessionConfig
	}
)

// NewConfig loads the configuration from the environment, optionally seeded by
// config/.env.<env> at the project root.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Taskhub")
	v.SetDefault("build", "develop")
	v.SetDefault("apiUrl", "http://localhost:8080/api")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("session.storageKey", "auth-storage")
	v.SetDefault("session.driver", SessionDriverFile)
	v.SetDefault("session.dir", defaultSessionDir())
	v.SetDefault("session.redisUrl", "redis://127.0.0.1:6379/0")

	env := strings.ToUpper(os.Getenv("ENV"))
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
		v.SetDefault("session.driver", SessionDriverMemory)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	// the backend URL is also accepted unprefixed, the way the browser build received it
	if err := v.BindEnv("apiUrl", env+"_API_URL", "API_URL"); err != nil {
		return nil, errors.Wrap(err, "binding API_URL")
	}

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     testMode,
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		APIURL:       strings.TrimRight(v.GetString("apiUrl"), "/"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Session: SessionConfig{
			StorageKey: v.GetString("session.storageKey"),
			Driver:     strings.ToLower(v.GetString("session.driver")),
			Dir:        v.GetString("session.dir"),
			RedisURL:   v.GetString("session.redisUrl"),
		},
	}
	if conf.APIURL == "" {
		return nil, errors.New("apiUrl must not be empty")
	}
	return conf, nil
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskhub")
	}
	return filepath.Join(os.TempDir(), "taskhub")
}
