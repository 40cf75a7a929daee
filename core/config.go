package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug           bool
		TestMode        bool
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		AppName         string
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string

		DefaultFromEmail          mail.Address
		PasswordResetTimeoutDelta time.Duration

		SendgridApiKey string
		RollbarToken   string

		Server   ServerConfig
		Database DatabaseConfig
		Alert    AlertConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		URI  string
		Name string
	}

	// AlertConfig tunes the deadline notification core.
	// DedupTTL bounds the dedup ledger's memory; 0 disables eviction.
	AlertConfig struct {
		ScanInterval time.Duration
		Horizon      time.Duration
		DedupTTL     time.Duration
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Duetrack")
	conf.SetDefault("secretKey", "w#05y=r7t+5gp$k)&v(1!fmfqh^$8e_85+^qy2(#ygmy4h2e")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugHost", "localhost:6060")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("databaseUri", "mongodb://localhost:27017")
	conf.SetDefault("databaseName", "duetrack")

	conf.SetDefault("alertScanInterval", 20*time.Second)
	conf.SetDefault("alertHorizon", 24*time.Hour)
	conf.SetDefault("alertDedupTTL", 48*time.Hour)

	env := os.Getenv("ENV")
	switch strings.ToUpper(env) {
	case "":
		env = "DEV"
	case "TEST":
		env = "TEST"
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:           conf.GetBool("debug"),
		TestMode:        conf.GetBool("testMode"),
		Env:             env,
		Build:           conf.GetString("build"),
		AppName:         conf.GetString("appName"),
		SecretKey:       conf.GetString("secretKey"),
		WorkDir:         wd,
		FrontendBaseURL: conf.GetString("frontendBaseURL"),

		DefaultFromEmail:          mail.Address{Address: conf.GetString("defaultFromEmail")},
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),

		SendgridApiKey: conf.GetString("sendgridApiKey"),
		RollbarToken:   conf.GetString("rollbarToken"),

		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			URI:  conf.GetString("databaseUri"),
			Name: conf.GetString("databaseName"),
		},
		Alert: AlertConfig{
			ScanInterval: conf.GetDuration("alertScanInterval"),
			Horizon:      conf.GetDuration("alertHorizon"),
			DedupTTL:     conf.GetDuration("alertDedupTTL"),
		},
	}
}
