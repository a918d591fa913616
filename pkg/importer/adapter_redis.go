// CLAUDE:SUMMARY Import adapter exporting the Redis-backed custom synonym hash into a dictionary directory.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/customdict"
	"github.com/hazyhaar/entitycorrect/pkg/dict"
	"github.com/redis/go-redis/v9"
)

// RedisConfig declares the custom dictionary hash in config.yaml.
type RedisConfig struct {
	URL      string            `yaml:"url"` // redis://[:password@]host:port/db
	Key      string            `yaml:"key"`
	DictID   string            `yaml:"dict_id"`
	Language string            `yaml:"language"`
	Phonetic dict.PhoneticSpec `yaml:"phonetic"`
}

// NewRedisAdapter returns the adapter for the custom dictionary hash.
func NewRedisAdapter(cfg RedisConfig) Adapter {
	if cfg.Key == "" {
		cfg.Key = customdict.DefaultKey
	}
	if cfg.DictID == "" {
		cfg.DictID = "custom"
	}
	return &redisAdapter{cfg: cfg}
}

type redisAdapter struct {
	cfg RedisConfig
}

func (a *redisAdapter) ID() string     { return "customdict-redis" }
func (a *redisAdapter) DictID() string { return a.cfg.DictID }
func (a *redisAdapter) Description() string {
	return "Custom synonyms from Redis hash " + a.cfg.Key
}
func (a *redisAdapter) DefaultURL() string { return a.cfg.URL }
func (a *redisAdapter) License() string    { return "internal" }

func (a *redisAdapter) Import(ctx context.Context, sourceURL, outputDir string) (int, error) {
	opts, err := redis.ParseURL(sourceURL)
	if err != nil {
		return 0, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	records, err := customdict.New(client, a.cfg.Key).All(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("custom dictionary %s is empty", a.cfg.Key)
	}

	m := &dict.Manifest{
		ID:         a.cfg.DictID,
		Version:    time.Now().UTC().Format("2006-01-02T15:04"),
		Language:   a.cfg.Language,
		EntityType: "custom",
		Source:     a.Description(),
		License:    a.License(),
		Phonetic:   a.cfg.Phonetic,
	}
	if err := writeDict(outputDir, m, records); err != nil {
		return 0, err
	}
	slog.Info("custom dictionary exported", "key", a.cfg.Key, "dict", a.cfg.DictID, "records", len(records))
	return len(records), nil
}
