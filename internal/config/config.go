package config

import "os"

// Config carries every externally tunable setting. It is built once in
// main and passed down explicitly; there are no package-level mutable
// defaults.
type Config struct {
	HTTPAddr   string
	MySQLDSN   string
	RedisAddr  string
	CatalogURL string
	AuthURL    string
	JWTSecret  string
}

// FromEnv loads the configuration from the environment, falling back to
// local development defaults.
func FromEnv() Config {
	return Config{
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		CatalogURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8081"),
		AuthURL:    getEnv("AUTH_SERVICE_URL", "http://localhost:8082"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
