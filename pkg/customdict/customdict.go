// Package customdict keeps operator-maintained synonym groups in a Redis
// hash: field = canonical name, value = tab-joined variants. The importer
// exports the hash into a regular dictionary directory.
package customdict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/dict"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis hash used when none is configured.
const DefaultKey = "entitycorrect:custom_dict"

// CustomDict wraps a Redis client to store custom synonym groups.
type CustomDict struct {
	client redis.Cmdable
	key    string
}

// New creates a CustomDict on the given hash key (DefaultKey if empty).
func New(client redis.Cmdable, key string) *CustomDict {
	if key == "" {
		key = DefaultKey
	}
	return &CustomDict{client: client, key: key}
}

// Key returns the Redis hash key.
func (cd *CustomDict) Key() string { return cd.key }

// Add registers variants for canonical, merging with the variants already
// stored.
func (cd *CustomDict) Add(ctx context.Context, canonical string, variants ...string) error {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return errors.New("customdict: empty canonical name")
	}
	existing, err := cd.client.HGet(ctx, cd.key, canonical).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("customdict: get %q: %w", canonical, err)
	}
	merged := mergeVariants(decodeVariants(existing), variants)
	if err := cd.client.HSet(ctx, cd.key, canonical, encodeVariants(merged)).Err(); err != nil {
		return fmt.Errorf("customdict: set %q: %w", canonical, err)
	}
	return nil
}

// Remove deletes the synonym group of canonical.
func (cd *CustomDict) Remove(ctx context.Context, canonical string) error {
	if err := cd.client.HDel(ctx, cd.key, canonical).Err(); err != nil {
		return fmt.Errorf("customdict: delete %q: %w", canonical, err)
	}
	return nil
}

// All returns every stored group as records sorted by canonical name.
// Each record lists the canonical name as its first variant.
func (cd *CustomDict) All(ctx context.Context) ([]dict.Record, error) {
	m, err := cd.client.HGetAll(ctx, cd.key).Result()
	if err != nil {
		return nil, fmt.Errorf("customdict: read %s: %w", cd.key, err)
	}
	return toRecords(m), nil
}

// Len returns the number of stored groups.
func (cd *CustomDict) Len(ctx context.Context) (int64, error) {
	return cd.client.HLen(ctx, cd.key).Result()
}

func toRecords(m map[string]string) []dict.Record {
	records := make([]dict.Record, 0, len(m))
	for canonical, value := range m {
		variants := append([]string{canonical}, decodeVariants(value)...)
		records = append(records, dict.Record{Canonical: canonical, Variants: variants})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Canonical < records[j].Canonical })
	return records
}

func encodeVariants(variants []string) string {
	return strings.Join(variants, "\t")
}

func decodeVariants(s string) []string {
	var out []string
	for _, v := range strings.Split(s, "\t") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// mergeVariants appends the new variants not already present, keeping order.
// Tabs inside a variant are replaced by spaces.
func mergeVariants(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, v := range append(existing, add...) {
		v = strings.TrimSpace(strings.ReplaceAll(v, "\t", " "))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
