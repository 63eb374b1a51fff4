package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Addr               string
		JWTExpirationDelta time.Duration
	}

	BackendConfig struct {
		BaseURL      string
		ClientID     string
		ClientSecret string
	}

	MoodleConfig struct {
		RequestTimeout  time.Duration
		LookupTimeout   time.Duration
		CourseRetries   int
		CourseRetryStep time.Duration
	}

	Config struct {
		Debug     bool
		TestMode  bool
		Env       string
		Build     string
		AppName   string
		SecretKey []byte

		StatePath        string
		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string

		Server  ServerConfig
		Backend BackendConfig
		Moodle  MoodleConfig
	}
)

var Conf *Config

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Certiko")
	v.SetDefault("secretKey", "y0m$c3x+q(kz&d8u5#-vb$backoffice+wr2n!e7*h^g4pa9t1f")
	v.SetDefault("statePath", filepath.Join(Getwd(), "config", "state.json"))
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("backendBaseURL", "http://localhost:9000")
	v.SetDefault("backendClientID", "")
	v.SetDefault("backendClientSecret", "")
	v.SetDefault("moodleRequestTimeout", 15*time.Second)
	v.SetDefault("moodleLookupTimeout", 10*time.Second)
	v.SetDefault("moodleCourseRetries", 2)
	v.SetDefault("moodleCourseRetryStep", 2*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		StatePath:        v.GetString("statePath"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Addr:               v.GetString("serverAddr"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Backend: BackendConfig{
			BaseURL:      strings.TrimSuffix(v.GetString("backendBaseURL"), "/"),
			ClientID:     v.GetString("backendClientID"),
			ClientSecret: v.GetString("backendClientSecret"),
		},
		Moodle: MoodleConfig{
			RequestTimeout:  v.GetDuration("moodleRequestTimeout"),
			LookupTimeout:   v.GetDuration("moodleLookupTimeout"),
			CourseRetries:   v.GetInt("moodleCourseRetries"),
			CourseRetryStep: v.GetDuration("moodleCourseRetryStep"),
		},
	}
}
