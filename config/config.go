// Package config loads the service configuration from defaults, an optional
// YAML file and SUBMISSIONS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/repository"
	"github.com/topcoder-platform/submissions-api-sub000/search"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

const envPrefix = "SUBMISSIONS"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	AWS        AWSConfig        `mapstructure:"aws"`
	DynamoDB   DynamoDBConfig   `mapstructure:"dynamodb"`
	Search     SearchConfig     `mapstructure:"search"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Bus        BusConfig        `mapstructure:"bus"`
	Challenge  ChallengeConfig  `mapstructure:"challenge"`
	Auth       AuthConfig       `mapstructure:"auth"`
	ScoreCards map[string]int64 `mapstructure:"scorecards"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

type DynamoDBConfig struct {
	SubmissionTable      string `mapstructure:"submission_table"`
	ReviewTable          string `mapstructure:"review_table"`
	ReviewSummationTable string `mapstructure:"review_summation_table"`
	ReviewTypeTable      string `mapstructure:"review_type_table"`
	RelationshipTable    string `mapstructure:"relationship_table"`
	UniqueTable          string `mapstructure:"unique_table"`
	NumShards            int    `mapstructure:"num_shards"`
	// CascadeDelete lets deleting a submission soft delete its reviews and
	// summations. When false such deletes are refused.
	CascadeDelete bool `mapstructure:"cascade_delete"`
}

// Tables returns the resource table names.
func (c DynamoDBConfig) Tables() repository.Tables {
	return repository.Tables{
		Submission:      c.SubmissionTable,
		Review:          c.ReviewTable,
		ReviewSummation: c.ReviewSummationTable,
		ReviewType:      c.ReviewTypeTable,
	}
}

// Store returns the store settings.
func (c DynamoDBConfig) Store() store.Config {
	return store.Config{
		RelationshipTable: c.RelationshipTable,
		UniqueTable:       c.UniqueTable,
		NumShards:         c.NumShards,
	}
}

type SearchConfig struct {
	Hosts    []string `mapstructure:"hosts"`
	Index    string   `mapstructure:"index"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
}

func (c SearchConfig) Client() search.Config {
	return search.Config{
		Addresses: c.Hosts,
		Username:  c.Username,
		Password:  c.Password,
		Index:     c.Index,
	}
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BusConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	Originator   string `mapstructure:"originator"`
	MaxLen       int64  `mapstructure:"max_len"`
}

// Publisher returns the publisher settings for the configured Redis server.
func (c *Config) Publisher() bus.Config {
	return bus.Config{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		StreamPrefix: c.Bus.StreamPrefix,
		Originator:   c.Bus.Originator,
		MaxLen:       c.Bus.MaxLen,
	}
}

type ChallengeConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	TokenURL     string        `mapstructure:"token_url"`
	Audience     string        `mapstructure:"audience"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (c ChallengeConfig) Client() challenge.Config {
	return challenge.Config{
		BaseURL:      c.BaseURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Audience:     c.Audience,
		Timeout:      c.Timeout,
	}
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. Precedence: environment, file, defaults.
// An empty path searches ./config and . for config.yaml. Callers run
// Validate for the settings their binary needs.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")

	tables := repository.DefaultTables()
	storeCfg := store.DefaultConfig()
	v.SetDefault("dynamodb.submission_table", tables.Submission)
	v.SetDefault("dynamodb.review_table", tables.Review)
	v.SetDefault("dynamodb.review_summation_table", tables.ReviewSummation)
	v.SetDefault("dynamodb.review_type_table", tables.ReviewType)
	v.SetDefault("dynamodb.relationship_table", storeCfg.RelationshipTable)
	v.SetDefault("dynamodb.unique_table", storeCfg.UniqueTable)
	v.SetDefault("dynamodb.num_shards", storeCfg.NumShards)
	v.SetDefault("dynamodb.cascade_delete", true)

	v.SetDefault("search.hosts", []string{"http://localhost:9200"})
	v.SetDefault("search.index", "submission-index")
	v.SetDefault("search.username", "")
	v.SetDefault("search.password", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("bus.enabled", true)
	v.SetDefault("bus.stream_prefix", "")
	v.SetDefault("bus.originator", "submission-api")
	v.SetDefault("bus.max_len", 100_000)

	v.SetDefault("challenge.base_url", "https://api.topcoder-dev.com/v5")
	v.SetDefault("challenge.client_id", "")
	v.SetDefault("challenge.client_secret", "")
	v.SetDefault("challenge.token_url", "https://topcoder-dev.auth0.com/oauth/token")
	v.SetDefault("challenge.audience", "https://m2m.topcoder-dev.com/")
	v.SetDefault("challenge.timeout", "10s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects configurations the HTTP server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range", c.Server.Port)
	}
	if c.Search.Index == "" {
		return errors.New("config: search.index is required")
	}
	if c.Challenge.BaseURL == "" {
		return errors.New("config: challenge.base_url is required")
	}
	return nil
}
