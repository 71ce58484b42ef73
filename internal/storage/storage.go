// Package storage persists calibration records behind calibration.Store.
package storage

import (
	"fmt"
	"time"
)

// Driver identifiers accepted by New.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Driver string `mapstructure:"store" yaml:"store" json:"store"`
	// Path is the badger directory or sqlite file.
	Path  string       `mapstructure:"path" yaml:"path" json:"path"`
	Redis *RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	Username string        `mapstructure:"username" yaml:"username" json:"username"`
	Password string        `mapstructure:"password" yaml:"password" json:"password"`
	DB       int           `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

var ErrEmptyKey = fmt.Errorf("calibration key must not be empty")

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
