// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs mirroring the YAML layout ---

type ServerConfig struct {
	Port          string   `mapstructure:"port"`
	PublicBaseURL string   `mapstructure:"publicBaseURL"`
	MaxUploadMB   int      `mapstructure:"maxUploadMB"`
	CORSOrigins   []string `mapstructure:"corsOrigins"`
}

// MaxUploadBytes is the largest supplier document or spreadsheet accepted.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "mongo" or "memory"
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

// TTL parses Expiration, falling back to 24h.
func (j JWTConfig) TTL() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(j.Expiration))
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
	Endpoint         string `mapstructure:"endpoint"`
	UsePathStyle     bool   `mapstructure:"usePathStyle"`
}

type PortalConfig struct {
	// SubmitStatus is the status a line moves to after a supplier upload.
	SubmitStatus string `mapstructure:"submitStatus"`
}

// SeedConfig optionally creates a buyer account at startup.
type SeedConfig struct {
	BuyerEmail    string `mapstructure:"buyerEmail"`
	BuyerPassword string `mapstructure:"buyerPassword"`
	BuyerName     string `mapstructure:"buyerName"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// --- Root config ---

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	S3     S3Config     `mapstructure:"s3"`
	Portal PortalConfig `mapstructure:"portal"`
	Seed   SeedConfig   `mapstructure:"seed"`
	Log    LogConfig    `mapstructure:"log"`
}

// LoadConfig reads config.yaml from path and overrides it with environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.publicBaseURL", "http://localhost:8080")
	v.SetDefault("server.maxUploadMB", 20)
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("mongo.dbName", "po_bridge")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("portal.submitStatus", "DONE")
	v.SetDefault("seed.buyerName", "Buyer")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.AutomaticEnv()

	// key "mongo.uri" in YAML is overridden by env MONGO_URI, and so on
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.publicBaseURL", "SERVER_PUBLIC_BASE_URL")
	v.BindEnv("server.maxUploadMB", "SERVER_MAX_UPLOAD_MB")
	v.BindEnv("server.corsOrigins", "SERVER_CORS_ORIGINS")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("s3.usePathStyle", "S3_USE_PATH_STYLE")
	v.BindEnv("portal.submitStatus", "PORTAL_SUBMIT_STATUS")
	v.BindEnv("seed.buyerEmail", "SEED_BUYER_EMAIL")
	v.BindEnv("seed.buyerPassword", "SEED_BUYER_PASSWORD")
	v.BindEnv("seed.buyerName", "SEED_BUYER_NAME")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// Without config.yaml, only defaults and environment variables are used.
	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return
}

// Validate reports missing credentials. The server must not start when it fails.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.JWT.Secret) == "" {
		problems = append(problems, "jwt.secret (JWT_SECRET)")
	}
	switch c.Store.Driver {
	case "mongo":
		if strings.TrimSpace(c.Mongo.URI) == "" {
			problems = append(problems, "mongo.uri (MONGO_URI)")
		}
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			problems = append(problems, "redis.url or redis.addr (REDIS_URL / REDIS_ADDR)")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q (want mongo or memory)", c.Store.Driver))
	}
	if strings.TrimSpace(c.S3.Bucket) == "" {
		problems = append(problems, "s3.bucket (S3_BUCKET)")
	}
	if strings.TrimSpace(c.S3.Region) == "" {
		problems = append(problems, "s3.region (S3_REGION)")
	}
	switch c.Portal.SubmitStatus {
	case "DONE", "PENDING_APPROVAL":
	default:
		problems = append(problems, fmt.Sprintf("portal.submitStatus %q (want DONE or PENDING_APPROVAL)", c.Portal.SubmitStatus))
	}
	if len(problems) > 0 {
		return errors.New("missing or invalid configuration: " + strings.Join(problems, ", "))
	}
	return nil
}
