package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	APIConfig struct {
		BaseURL        string
		Token          string
		RequestTimeout time.Duration
	}

	CacheConfig struct {
		Driver     string // memory | file | sql
		Path       string
		ProfileKey string
	}

	// EnrollmentConfig holds the message fragments used to classify backend failures.
	EnrollmentConfig struct {
		SuccessPhrases           []string
		DuplicatePhrases         []string
		ProfileIncompletePhrases []string
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	ServerConfig struct {
		Addr                 string
		Host                 string
		SecretKey            string
		JWTExpirationDelta   time.Duration
		ShutdownTimeout      time.Duration
		ReportSuccessAsError bool
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		DefaultFromEmail string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string

		API        APIConfig
		Cache      CacheConfig
		Enrollment EnrollmentConfig
		Database   DatabaseConfig
		Server     ServerConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig reads the configuration from defaults, the optional config/.env.<env> file and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("apiBaseURL", "http://localhost:8000/api")
	v.SetDefault("apiToken", "")
	v.SetDefault("apiRequestTimeout", 30*time.Second)

	v.SetDefault("cacheDriver", "file")
	v.SetDefault("cachePath", filepath.Join(os.TempDir(), "masomo"))
	v.SetDefault("cacheProfileKey", "default")

	v.SetDefault("enrollmentSuccessPhrases", []string{})
	v.SetDefault("enrollmentDuplicatePhrases", []string{})
	v.SetDefault("enrollmentProfileIncompletePhrases", []string{})

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "masomo")
	v.SetDefault("dbUser", "masomo")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("reportSuccessAsError", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		API: APIConfig{
			BaseURL:        v.GetString("apiBaseURL"),
			Token:          v.GetString("apiToken"),
			RequestTimeout: v.GetDuration("apiRequestTimeout"),
		},
		Cache: CacheConfig{
			Driver:     v.GetString("cacheDriver"),
			Path:       v.GetString("cachePath"),
			ProfileKey: v.GetString("cacheProfileKey"),
		},
		Enrollment: EnrollmentConfig{
			SuccessPhrases:           v.GetStringSlice("enrollmentSuccessPhrases"),
			DuplicatePhrases:         v.GetStringSlice("enrollmentDuplicatePhrases"),
			ProfileIncompletePhrases: v.GetStringSlice("enrollmentProfileIncompletePhrases"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("dbEngine"),
			Host:       v.GetString("dbHost"),
			Port:       v.GetInt("dbPort"),
			Name:       v.GetString("dbName"),
			User:       v.GetString("dbUser"),
			Password:   v.GetString("dbPassword"),
			DisableTLS: v.GetBool("dbDisableTLS"),
		},
		Server: ServerConfig{
			Addr:                 v.GetString("serverAddr"),
			Host:                 v.GetString("serverHost"),
			SecretKey:            v.GetString("secretKey"),
			JWTExpirationDelta:   v.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:      v.GetDuration("shutdownTimeout"),
			ReportSuccessAsError: v.GetBool("reportSuccessAsError"),
		},
	}
}
