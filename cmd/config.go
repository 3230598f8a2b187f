package main

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath      string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath       string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel            string        `env:"LOG_LEVEL,required=true"`
	Host                string        `env:"HOST,default=localhost"`
	Port                int           `env:"PORT,default=8080"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	InactivityThreshold time.Duration `env:"INACTIVITY_THRESHOLD,default=10s"`
	TelemetryInterval   time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	MaskingChar         string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
