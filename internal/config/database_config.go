package config

type DatabaseConfig interface {
	GetDatabaseURL() string
}

type Database struct {
	URL string `env:"DATABASE_URL" envDefault:"file:sso.db?cache=shared"`
}

var _ DatabaseConfig = Database{}

func (d Database) GetDatabaseURL() string {
	return d.URL
}
