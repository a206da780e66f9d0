package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Store:  StoreConfig{Driver: "mongo"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", DBName: "po_bridge"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		JWT:    JWTConfig{Secret: "s3cret", Expiration: "1h"},
		S3:     S3Config{Bucket: "files", Region: "ap-northeast-2"},
		Portal: PortalConfig{SubmitStatus: "DONE"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateReportsMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = ""
	cfg.Mongo.URI = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestValidateMemoryDriverSkipsMongoAndRedis(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "memory"
	cfg.Mongo.URI = ""
	cfg.Redis = RedisConfig{}

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownSubmitStatus(t *testing.T) {
	cfg := validConfig()
	cfg.Portal.SubmitStatus = "PENDING_UPLOAD"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal.submitStatus")
}

func TestJWTTTLFallsBackTo24h(t *testing.T) {
	assert.Equal(t, 24*time.Hour, JWTConfig{Expiration: "bogus"}.TTL())
	assert.Equal(t, 90*time.Minute, JWTConfig{Expiration: "90m"}.TTL())
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("S3_BUCKET", "env-bucket")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "env-bucket", cfg.S3.Bucket)
	assert.Equal(t, "DONE", cfg.Portal.SubmitStatus)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes())
}
