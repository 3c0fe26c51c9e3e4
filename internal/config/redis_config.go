package config

import "time"

type RedisConfig interface {
	GetRedisURL() string
	GetRedisDialTimeout() time.Duration
	GetRedisReadTimeout() time.Duration
	GetRedisWriteTimeout() time.Duration
}

type Redis struct {
	URL          string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

var _ RedisConfig = Redis{}

func (r Redis) GetRedisURL() string {
	return r.URL
}

func (r Redis) GetRedisDialTimeout() time.Duration {
	return r.DialTimeout
}

func (r Redis) GetRedisReadTimeout() time.Duration {
	return r.ReadTimeout
}

func (r Redis) GetRedisWriteTimeout() time.Duration {
	return r.WriteTimeout
}
