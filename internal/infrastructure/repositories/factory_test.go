package repositories

import (
	"context"
	"testing"

	"morpheus/internal/infrastructure/repositories/memory"
	"morpheus/pkg/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRepositoryFactory_MemoryWhenRedisDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = false

	f := NewRepositoryFactory(cfg, zap.NewNop().Sugar())
	defer f.Close()

	assert.Nil(t, f.RedisClient())
	assert.IsType(t, &memory.MemoryLastRoomRepository{}, f.CreateLastRoomRepository())
	assert.NoError(t, f.HealthCheck(context.Background()))
}

func TestRepositoryFactory_FallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = "127.0.0.1:1"

	f := NewRepositoryFactory(cfg, zap.NewNop().Sugar())
	defer f.Close()

	assert.Nil(t, f.RedisClient())
	assert.IsType(t, &memory.MemoryLastRoomRepository{}, f.CreateLastRoomRepository())
}
