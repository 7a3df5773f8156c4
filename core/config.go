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

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	Build    string
	AppName  string

	SecretKey                 []byte
	WorkDir                   string
	FrontendBaseURL           string
	PublicBaseURL             string // base URL embedded in tracking pixel links
	DefaultFromEmail          mail.Address
	PasswordResetTimeoutDelta time.Duration

	Server struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Path string
	}

	OpenAI struct {
		APIKey  string
		BaseURL string
		Model   string
	}

	SendgridAPIKey string
	RollbarToken   string
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "MinuMate")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "v3&ry-s3cr3t-k3y-ch@ng3-m3-in-pr0d")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("publicBaseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "noreply@minumate.com")
	v.SetDefault("senderName", "Meeting Analyzer Bot")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 30*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.path", "minumate.db")
	v.SetDefault("openai.model", "gpt-4o-mini")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.path", ":memory:")
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// well-known variable names take precedence over the prefixed ones
	_ = v.BindEnv("secretKey", "JWT_SECRET_KEY")
	_ = v.BindEnv("openai.apiKey", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.baseURL", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("sendgridAPIKey", "SENDGRID_API_KEY")
	_ = v.BindEnv("defaultFromEmail", "SENDER_EMAIL")
	_ = v.BindEnv("senderName", "SENDER_NAME")
	_ = v.BindEnv("rollbarToken", "ROLLBAR_TOKEN")

	conf := &Config{
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 []byte(v.GetString("secretKey")),
		WorkDir:                   wd,
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		PublicBaseURL:             v.GetString("publicBaseURL"),
		DefaultFromEmail:          mail.Address{Name: v.GetString("senderName"), Address: v.GetString("defaultFromEmail")},
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		SendgridAPIKey:            v.GetString("sendgridAPIKey"),
		RollbarToken:              v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Addr = v.GetString("server.addr")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	conf.Database.Path = v.GetString("database.path")
	conf.OpenAI.APIKey = v.GetString("openai.apiKey")
	conf.OpenAI.BaseURL = v.GetString("openai.baseURL")
	conf.OpenAI.Model = v.GetString("openai.model")
	return conf
}
