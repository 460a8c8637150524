package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guestdesk/internal/factory"
)

type ConfigSuite struct {
	suite.Suite
	env map[string]string
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.env = map[string]string{}
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) getenv(key string) string {
	return s.env[key]
}

func (s *ConfigSuite) writeFile(content string) string {
	path := filepath.Join(s.dir, "guestdesk.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load("", s.getenv)
	s.Require().NoError(err)

	s.Equal(factory.StorageTypeMemory, cfg.Storage.Type)
	s.Equal(8080, cfg.Server.Port)
	s.Equal(6, cfg.Eligibility.CompanionAgeThreshold)
	s.Equal(16*time.Hour, cfg.Auth.SessionDuration)
}

func (s *ConfigSuite) TestFileOverridesDefaults() {
	path := s.writeFile(`
server:
  port: 9090
storage:
  type: sqlite
  sqlite:
    path: /var/lib/guestdesk/guests.db
auth:
  session_duration: 8h
eligibility:
  companion_age_threshold: 7
log:
  level: debug
`)

	cfg, err := Load(path, s.getenv)
	s.Require().NoError(err)

	s.Equal(9090, cfg.Server.Port)
	s.Equal(factory.StorageTypeSQLite, cfg.Storage.Type)
	s.Equal("/var/lib/guestdesk/guests.db", cfg.Storage.SQLite.Path)
	s.Equal(8*time.Hour, cfg.Auth.SessionDuration)
	s.Equal(7, cfg.Eligibility.CompanionAgeThreshold)
	s.Equal("debug", cfg.Log.Level)
	// Untouched sections keep their defaults
	s.Equal(30*time.Second, cfg.Server.ShutdownTimeout)
	s.Equal(5*time.Second, cfg.Server.ReadHeaderTimeout)
	s.Equal(12*time.Hour, cfg.Storage.Redis.DraftTTL)
	s.Equal(12*time.Hour, cfg.Storage.SQLite.DraftTTL)
}

func (s *ConfigSuite) TestEnvironmentOverridesFile() {
	path := s.writeFile("storage:\n  type: sqlite\n")
	s.env["STORAGE_TYPE"] = "redis"
	s.env["REDIS_URL"] = "redis://cache:6379/2"
	s.env["PORT"] = "7000"

	cfg, err := Load(path, s.getenv)
	s.Require().NoError(err)

	s.Equal(factory.StorageTypeRedis, cfg.Storage.Type)
	s.Equal("redis://cache:6379/2", cfg.Storage.Redis.URL)
	s.Equal(7000, cfg.Server.Port)
}

func (s *ConfigSuite) TestInvalidPortEnv() {
	s.env["PORT"] = "eighty"
	_, err := Load("", s.getenv)
	s.Error(err)
}

func (s *ConfigSuite) TestMissingFile() {
	_, err := Load(filepath.Join(s.dir, "absent.yaml"), s.getenv)
	s.Error(err)
}

func (s *ConfigSuite) TestMalformedFile() {
	path := s.writeFile("server: [not, a, map]")
	_, err := Load(path, s.getenv)
	s.Error(err)
}

func (s *ConfigSuite) TestValidationCollectsEveryProblem() {
	path := s.writeFile(`
server:
  port: 0
storage:
  type: postgres
eligibility:
  companion_age_threshold: -1
log:
  level: loud
`)

	_, err := Load(path, s.getenv)
	s.Require().Error(err)
	s.Contains(err.Error(), "server.port")
	s.Contains(err.Error(), "storage.type")
	s.Contains(err.Error(), "companion_age_threshold")
	s.Contains(err.Error(), "log.level")
}

func TestFactoryConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = factory.StorageTypeRedis
	cfg.Storage.Redis.URL = "redis://example:6379"

	fc := cfg.FactoryConfig(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://example:6379", fc.RedisConfig.URL)
	assert.Equal(t, factory.StorageTypeRedis, fc.StorageType)
	assert.Equal(t, cfg.Eligibility, fc.EligibilityConfig)
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "warn"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}
