package metasource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// Well-known keys the metadata ingestors publish under.
const (
	keyVenuePrefix = "meta:info:" // + exchange id
	keyAssetIDMap  = "meta:cg-map"
	keyIdentityMap = "meta:identity-map"
)

// RedisSource reads the metadata blobs from Redis. Each getter returns an
// error for a missing key or a malformed blob; the registry treats that as
// "keep the cached copy".
type RedisSource struct {
	rdb *redis.Client
}

func NewRedisSource(rdb *redis.Client) *RedisSource {
	return &RedisSource{rdb: rdb}
}

func (s *RedisSource) VenueMetadata(ctx context.Context, exchange string) (map[string]model.VenueMetadata, error) {
	raw, err := s.rdb.Get(ctx, keyVenuePrefix+exchange).Result()
	if err != nil {
		return nil, fmt.Errorf("get venue metadata %s: %w", exchange, err)
	}
	var out map[string]model.VenueMetadata
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode venue metadata %s: %w", exchange, err)
	}
	return out, nil
}

func (s *RedisSource) AssetIDMap(ctx context.Context) (map[string]string, error) {
	raw, err := s.rdb.Get(ctx, keyAssetIDMap).Result()
	if err != nil {
		return nil, fmt.Errorf("get asset id map: %w", err)
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode asset id map: %w", err)
	}
	return out, nil
}

func (s *RedisSource) IdentityMap(ctx context.Context) (map[string]map[string]string, error) {
	raw, err := s.rdb.Get(ctx, keyIdentityMap).Result()
	if err != nil {
		return nil, fmt.Errorf("get identity map: %w", err)
	}
	var out map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode identity map: %w", err)
	}
	return out, nil
}

var _ port.MetadataSource = (*RedisSource)(nil)
