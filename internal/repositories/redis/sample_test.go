package redis

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sbilibin2017/gophrt/internal/models"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})

	t.Cleanup(func() {
		client.Close()
		if err := redisC.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	})

	return client
}

func TestSampleRepository(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	repo := NewSampleRepository(client, "")

	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Save(ctx, []*models.Sample{
		{Kind: models.KindService, ServiceID: "svc", Recorded: 100, Requests: 5},
		{Kind: models.KindService, ServiceID: "svc", Recorded: 100, POP: "AMS", Requests: 2},
		{Kind: models.KindService, ServiceID: "svc", Recorded: 101, Requests: 7},
		{Kind: models.KindOrigin, ServiceID: "svc", Recorded: 101, Origin: "a", Requests: 3},
	}))

	t.Run("upsert", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, []*models.Sample{
			{Kind: models.KindService, ServiceID: "svc", Recorded: 100, Requests: 50},
		}))

		got, err := repo.List(ctx, models.SampleFilter{Kind: models.KindService, ServiceID: "svc", AggregateOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, uint64(7), got[0].Requests)
		assert.Equal(t, uint64(50), got[1].Requests)
	})

	t.Run("across scopes", func(t *testing.T) {
		got, err := repo.List(ctx, models.SampleFilter{Since: 101})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "", got[0].Origin)
		assert.Equal(t, "a", got[1].Origin)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.List(ctx, models.SampleFilter{Kind: models.KindService, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, uint64(101), got[0].Recorded)
	})

	t.Run("delete before", func(t *testing.T) {
		require.NoError(t, repo.DeleteBefore(ctx, 101))

		got, err := repo.List(ctx, models.SampleFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)

		n, err := client.HLen(ctx, "gophrt:samples:service:svc").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestSampleRepository_LatestAcrossPages(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	repo := NewSampleRepository(client, "paged")
	repo.pageSize = 4

	var batch []*models.Sample
	for sec := uint64(1); sec <= 50; sec++ {
		batch = append(batch,
			&models.Sample{Kind: models.KindOrigin, ServiceID: "svc", Recorded: sec, Origin: "a", Requests: sec},
			&models.Sample{Kind: models.KindOrigin, ServiceID: "svc", Recorded: sec, POP: "AMS", Origin: "a", Requests: 1},
			&models.Sample{Kind: models.KindOrigin, ServiceID: "svc", Recorded: sec, POP: "LHR", Origin: "a", Requests: 1},
		)
	}
	require.NoError(t, repo.Save(ctx, batch))

	t.Run("newest aggregate", func(t *testing.T) {
		got, err := repo.List(ctx, models.SampleFilter{
			Kind:          models.KindOrigin,
			ServiceID:     "svc",
			AggregateOnly: true,
			Limit:         1,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, uint64(50), got[0].Recorded)
		assert.Equal(t, uint64(50), got[0].Requests)
	})

	t.Run("limit spans pages", func(t *testing.T) {
		got, err := repo.List(ctx, models.SampleFilter{Kind: models.KindOrigin, ServiceID: "svc", Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, uint64(50), got[0].Recorded)
		assert.Equal(t, "", got[0].POP)
		assert.Equal(t, "AMS", got[1].POP)
		assert.Equal(t, "LHR", got[2].POP)
		assert.Equal(t, uint64(49), got[3].Recorded)
		assert.Equal(t, "", got[3].POP)
		assert.Equal(t, "AMS", got[4].POP)
	})

	t.Run("since floor", func(t *testing.T) {
		got, err := repo.List(ctx, models.SampleFilter{Kind: models.KindOrigin, AggregateOnly: true, Since: 41})
		require.NoError(t, err)
		require.Len(t, got, 10)
		assert.Equal(t, uint64(41), got[9].Recorded)
	})

	t.Run("delete keeps index and data in step", func(t *testing.T) {
		require.NoError(t, repo.DeleteBefore(ctx, 26))

		indexed, err := client.ZCard(ctx, "paged:index:origin:svc").Result()
		require.NoError(t, err)
		stored, err := client.HLen(ctx, "paged:samples:origin:svc").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(75), indexed)
		assert.Equal(t, indexed, stored)
	})
}

func TestMemberOf(t *testing.T) {
	assert.Equal(t, `10|"AMS"|""`, memberOf(models.SampleID{Recorded: 10, POP: "AMS"}))
	assert.Equal(t, `10|""|"a"`, memberOf(models.SampleID{Recorded: 10, Origin: "a"}))
	assert.NotEqual(t,
		memberOf(models.SampleID{Recorded: 10, POP: "a|b"}),
		memberOf(models.SampleID{Recorded: 10, POP: "a", Origin: "b|"}),
	)
}
