package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gophrt/internal/models"
)

const (
	defaultPrefix   = "gophrt"
	defaultPageSize = 500
)

// SampleRepository stores samples in Redis.
//
// Every (kind, service) scope owns a hash of encoded samples keyed by
// identity and a sorted set of the same identities scored by recorded.
// A set lists the known scopes.
type SampleRepository struct {
	client   redis.UniversalClient
	prefix   string
	pageSize int64
}

// NewSampleRepository creates a repository on client. An empty prefix
// falls back to "gophrt".
func NewSampleRepository(client redis.UniversalClient, prefix string) *SampleRepository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SampleRepository{client: client, prefix: prefix, pageSize: defaultPageSize}
}

// Save upserts samples.
func (r *SampleRepository) Save(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range samples {
			payload, err := json.Marshal(s)
			if err != nil {
				return err
			}
			scope := scopeOf(s.Kind, s.ServiceID)
			member := memberOf(s.ID())

			pipe.SAdd(ctx, r.scopesKey(), scope)
			pipe.HSet(ctx, r.dataKey(scope), member, payload)
			pipe.ZAdd(ctx, r.indexKey(scope), redis.Z{Score: float64(s.Recorded), Member: member})
		}
		return nil
	})
	return err
}

// List returns samples matching filter, newest first.
func (r *SampleRepository) List(ctx context.Context, filter models.SampleFilter) ([]*models.Sample, error) {
	scopes, err := r.scopes(ctx, filter.Kind, filter.ServiceID)
	if err != nil {
		return nil, err
	}

	samples := make([]*models.Sample, 0)
	for _, scope := range scopes {
		found, err := r.listScope(ctx, scope, filter)
		if err != nil {
			return nil, err
		}
		samples = append(samples, found...)
	}

	models.SortSamples(samples)
	if filter.Limit > 0 && len(samples) > filter.Limit {
		samples = samples[:filter.Limit]
	}
	return samples, nil
}

// listScope walks the index of one scope newest first, a page at a time.
// With a limit it stops once the unread members are all older than the
// limit-th match.
func (r *SampleRepository) listScope(
	ctx context.Context,
	scope string,
	filter models.SampleFilter,
) ([]*models.Sample, error) {
	var (
		samples []*models.Sample
		offset  int64
	)
	for {
		page, err := r.client.ZRevRangeByScoreWithScores(ctx, r.indexKey(scope), &redis.ZRangeBy{
			Min:    strconv.FormatUint(filter.Since, 10),
			Max:    "+inf",
			Offset: offset,
			Count:  r.pageSize,
		}).Result()
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return samples, nil
		}

		members := make([]string, 0, len(page))
		for _, z := range page {
			if m, ok := z.Member.(string); ok {
				members = append(members, m)
			}
		}

		values, err := r.client.HMGet(ctx, r.dataKey(scope), members...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var s models.Sample
			if err := json.Unmarshal([]byte(raw), &s); err != nil {
				return nil, err
			}
			if filter.Match(&s) {
				samples = append(samples, &s)
			}
		}

		if int64(len(page)) < r.pageSize {
			return samples, nil
		}
		offset += int64(len(page))

		oldest := uint64(page[len(page)-1].Score)
		if filter.Limit > 0 && len(samples) >= filter.Limit && oldest < samples[filter.Limit-1].Recorded {
			return samples, nil
		}
	}
}

// DeleteBefore drops samples recorded before the given second.
func (r *SampleRepository) DeleteBefore(ctx context.Context, recorded uint64) error {
	scopes, err := r.scopes(ctx, "", "")
	if err != nil {
		return err
	}

	upper := "(" + strconv.FormatUint(recorded, 10)
	for _, scope := range scopes {
		members, err := r.client.ZRangeByScore(ctx, r.indexKey(scope), &redis.ZRangeBy{
			Min: "-inf",
			Max: upper,
		}).Result()
		if err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}

		indexed := make([]interface{}, len(members))
		for i, m := range members {
			indexed[i] = m
		}

		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, r.dataKey(scope), members...)
			pipe.ZRem(ctx, r.indexKey(scope), indexed...)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the Redis connection.
func (r *SampleRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *SampleRepository) scopes(ctx context.Context, kind, serviceID string) ([]string, error) {
	if kind != "" && serviceID != "" {
		return []string{scopeOf(kind, serviceID)}, nil
	}

	all, err := r.client.SMembers(ctx, r.scopesKey()).Result()
	if err != nil {
		return nil, err
	}

	scopes := all[:0]
	for _, scope := range all {
		k, svc, ok := strings.Cut(scope, ":")
		if !ok {
			continue
		}
		if kind != "" && k != kind {
			continue
		}
		if serviceID != "" && svc != serviceID {
			continue
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

func (r *SampleRepository) scopesKey() string {
	return r.prefix + ":scopes"
}

func (r *SampleRepository) dataKey(scope string) string {
	return r.prefix + ":samples:" + scope
}

func (r *SampleRepository) indexKey(scope string) string {
	return r.prefix + ":index:" + scope
}

func scopeOf(kind, serviceID string) string {
	return kind + ":" + serviceID
}

// memberOf encodes a sample identity. POP and origin are quoted so that
// separators inside names cannot collide.
func memberOf(id models.SampleID) string {
	return fmt.Sprintf("%d|%s|%s", id.Recorded, strconv.Quote(id.POP), strconv.Quote(id.Origin))
}
