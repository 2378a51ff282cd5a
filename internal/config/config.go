package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	"github.com/xhit/go-str2duration/v2"
)

const envPrefix = "RALLYPOINT_"

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"db"`
	Supabase Supabase `koanf:"supabase"`
	Auth     Auth     `koanf:"auth"`
	Sentry   Sentry   `koanf:"sentry"`
	Calendar Calendar `koanf:"calendar"`
}

type Server struct {
	Addr         string `koanf:"addr"`
	ReadTimeout  string `koanf:"readtimeout"`
	WriteTimeout string `koanf:"writetimeout"`
	IdleTimeout  string `koanf:"idletimeout"`
}

type Database struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Pass     string `koanf:"pass"`
	Name     string `koanf:"name"`
	Schema   string `koanf:"schema"`
	// MaxConns and MinConns size the connection pool.
	MaxConns int32 `koanf:"maxconns"`
	MinConns int32 `koanf:"minconns"`
}

type Supabase struct {
	ProjectRef string `koanf:"projectref"`
	ApiKey     string `koanf:"apikey"`
	// Url overrides the GoTrue endpoint derived from ProjectRef, e.g. for a self-hosted instance.
	Url string `koanf:"url"`
}

type Auth struct {
	AccessTokenTTL  string `koanf:"accesstokenttl"`
	RefreshTokenTTL string `koanf:"refreshtokenttl"`
	SecureCookies   bool   `koanf:"securecookies"`
}

type Sentry struct {
	Dsn         string `koanf:"dsn"`
	Environment string `koanf:"environment"`
}

type Calendar struct {
	// SheetCloseDelay is how long the selection survives after the detail sheet is closed.
	SheetCloseDelay  string `koanf:"sheetclosedelay"`
	// RefreshSchedule is a cron spec for refetching every active store; empty disables it.
	RefreshSchedule  string `koanf:"refreshschedule"`
	Timezone         string `koanf:"timezone"`
	// StoreIdleTimeout is how long an unwatched store is kept after its last use.
	StoreIdleTimeout string `koanf:"storeidletimeout"`
}

// Defaults returns the configuration used when neither file nor environment override a value.
func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Addr:         ":8181",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
			IdleTimeout:  "60s",
		},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "rallypoint",
			Pass:     "",
			Name:     "rallypoint",
			Schema:   "rallypoint",
			MaxConns: 25,
			MinConns: 2,
		},
		Auth: Auth{
			AccessTokenTTL:  "1h",
			RefreshTokenTTL: "30d",
			SecureCookies:   true,
		},
		Sentry: Sentry{
			Environment: "development",
		},
		Calendar: Calendar{
			SheetCloseDelay:  "500ms",
			RefreshSchedule:  "@every 5m",
			Timezone:         "Local",
			StoreIdleTimeout: "30m",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if err := app.validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a Application) validate() error {
	for name, value := range map[string]string{
		"server.readtimeout":        a.Server.ReadTimeout,
		"server.writetimeout":       a.Server.WriteTimeout,
		"server.idletimeout":        a.Server.IdleTimeout,
		"auth.accesstokenttl":       a.Auth.AccessTokenTTL,
		"auth.refreshtokenttl":      a.Auth.RefreshTokenTTL,
		"calendar.sheetclosedelay":  a.Calendar.SheetCloseDelay,
		"calendar.storeidletimeout": a.Calendar.StoreIdleTimeout,
	} {
		if _, err := str2duration.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	if a.Database.MaxConns < 1 || a.Database.MinConns < 0 || a.Database.MinConns > a.Database.MaxConns {
		return fmt.Errorf("invalid db pool size: minconns %d, maxconns %d", a.Database.MinConns, a.Database.MaxConns)
	}
	if _, err := time.LoadLocation(a.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid calendar.timezone: %w", err)
	}
	return nil
}

// Duration parses a validated duration string such as "500ms" or "30d".
func Duration(value string) time.Duration {
	d, err := str2duration.ParseDuration(value)
	if err != nil {
		log.Warnf("invalid duration %q, using zero", value)
		return 0
	}
	return d
}

// Location returns the timezone calendar intervals are computed in.
func (c Calendar) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
