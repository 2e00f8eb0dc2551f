package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	HTTPAddr      string
	LogLevel      string

	// Image storage
	BlobBackend  string
	UploadDir    string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3PublicURL  string
	S3Prefix     string
	AWSAccessKey string
	AWSSecretKey string
}

// Load builds the configuration from the environment. When CONFIG_FILE names a
// YAML file of KEY: value pairs, its entries fill in for unset variables.
func Load() (*Config, error) {
	file := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return nil, err
		}
	}

	get := func(key, defaultValue string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		if value, ok := file[key]; ok && value != "" {
			return value
		}
		return defaultValue
	}

	return &Config{
		DBDriver:      get("DB_DRIVER", "mysql"),
		DBHost:        get("DB_HOST", "localhost"),
		DBPort:        get("DB_PORT", "3306"),
		DBUser:        get("DB_USER", "recipeuser"),
		DBPassword:    get("DB_PASSWORD", "recipepassword"),
		DBName:        get("DB_NAME", "recipe_catalog"),
		DBSSLMode:     get("DB_SSLMODE", "disable"),
		RedisHost:     get("REDIS_HOST", "localhost"),
		RedisPort:     get("REDIS_PORT", "6379"),
		SessionSecret: get("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       get("GIN_MODE", "debug"),
		HTTPAddr:      get("HTTP_ADDR", ":8080"),
		LogLevel:      get("LOG_LEVEL", "info"),
		BlobBackend:   get("BLOB_BACKEND", "disk"),
		UploadDir:     get("UPLOAD_DIR", "./uploads"),
		S3Bucket:      get("S3_BUCKET", ""),
		S3Region:      get("S3_REGION", "us-east-1"),
		S3Endpoint:    get("S3_ENDPOINT", ""),
		S3PublicURL:   get("S3_PUBLIC_URL", ""),
		S3Prefix:      get("S3_PREFIX", "recipes"),
		AWSAccessKey:  get("AWS_ACCESS_KEY", ""),
		AWSSecretKey:  get("AWS_SECRET_KEY", ""),
	}, nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return values, nil
}
