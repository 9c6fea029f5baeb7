package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// insecureSecretKey is the built-in development signing key. It is public by
// definition; NewConfig refuses to start a non-debug deployment with it.
const insecureSecretKey = "mx2$wel)kv8#+04=pz&ahqy7(j!d)#*f9(#ur3t^$dshm5ojw"

var errInsecureSecretKey = errors.New(
	"secretKey is still the insecure built-in default; set <ENV>_SECRETKEY before deploying")

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	SMTPConfig struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	TextAPIConfig struct {
		BaseURL    string
		APIKey     string
		Model      string
		Timeout    time.Duration
		CharBudget int // max content runes sent per generation call
	}

	ProgressAPIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	JobsConfig struct {
		ReminderSpec string // cron spec, UTC
		ProgressSpec string // cron spec, UTC
	}

	Config struct {
		AppName  string
		Env      string
		Build    string
		Debug    bool
		TestMode bool

		SecretKey        string
		WorkDir          string
		DataDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		SMTP     SMTPConfig
		TextAPI  TextAPIConfig
		Progress ProgressAPIConfig
		Jobs     JobsConfig

		SendgridAPIKey string
		RollbarToken   string
	}
)

// NewConfig loads the app configuration: built-in defaults, then an optional
// config/.env.<env> file, then environment variables prefixed with <ENV>_.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	workDir := Getwd()

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", insecureSecretKey)
	v.SetDefault("dataDir", filepath.Join(workDir, "data", "courses"))
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("smtpHost", "localhost")
	v.SetDefault("smtpPort", 587)
	v.SetDefault("smtpUsername", "")
	v.SetDefault("smtpPassword", "")
	v.SetDefault("textApiBaseURL", "https://api.openai.com")
	v.SetDefault("textApiKey", "")
	v.SetDefault("textApiModel", "gpt-4o-mini")
	v.SetDefault("textApiTimeout", 60*time.Second)
	v.SetDefault("textApiCharBudget", 6000)
	v.SetDefault("progressApiBaseURL", "http://localhost:9000")
	v.SetDefault("progressApiTimeout", 10*time.Second)
	v.SetDefault("reminderJobSpec", "0 5 * * *")  // 05:00 UTC, before tokens become valid
	v.SetDefault("progressJobSpec", "0 19 * * *") // 19:00 UTC
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:  v.GetString("appName"),
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),

		SecretKey:       v.GetString("secretKey"),
		WorkDir:         workDir,
		DataDir:         v.GetString("dataDir"),
		FrontendBaseURL: strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},

		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtpHost"),
			Port:     v.GetInt("smtpPort"),
			Username: v.GetString("smtpUsername"),
			Password: v.GetString("smtpPassword"),
		},
		TextAPI: TextAPIConfig{
			BaseURL:    strings.TrimRight(v.GetString("textApiBaseURL"), "/"),
			APIKey:     v.GetString("textApiKey"),
			Model:      v.GetString("textApiModel"),
			Timeout:    v.GetDuration("textApiTimeout"),
			CharBudget: v.GetInt("textApiCharBudget"),
		},
		Progress: ProgressAPIConfig{
			BaseURL: strings.TrimRight(v.GetString("progressApiBaseURL"), "/"),
			Timeout: v.GetDuration("progressApiTimeout"),
		},
		Jobs: JobsConfig{
			ReminderSpec: v.GetString("reminderJobSpec"),
			ProgressSpec: v.GetString("progressJobSpec"),
		},

		SendgridAPIKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
	}

	if !conf.Debug && conf.SecretKey == insecureSecretKey {
		return nil, errInsecureSecretKey
	}
	return conf, nil
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests... this breaks our code...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err = os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
