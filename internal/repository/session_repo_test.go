package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jornada/internal/model"
)

func setupTestRepo(t *testing.T) SessionRepo {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}
	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mongoContainer.Terminate(ctx)
	})

	host, err := mongoContainer.Host(ctx)
	require.NoError(t, err)
	port, err := mongoContainer.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(ctx)
	})

	repo := NewSessionRepo(client.Database("jornada_test"))
	require.NoError(t, repo.EnsureIndexes(ctx))

	return repo
}

func openSession(code string) *model.WorkSession {
	return &model.WorkSession{
		ID:        uuid.New().String(),
		Code:      code,
		StartTime: time.Now().UTC(),
	}
}

func TestSessionRepo_CreateAndLookup(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, openSession("EMP001")))

	byCode, err := repo.GetByCode(ctx, "EMP001")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	require.Equal(t, "EMP001", byCode.Code)
	require.Nil(t, byCode.EndTime)
	require.Nil(t, byCode.TotalMs)

	active, err := repo.GetActive(ctx, "EMP001")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, byCode.ID, active.ID)

	missing, err := repo.GetByCode(ctx, "UNKNOWN")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSessionRepo_DuplicateCode(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, openSession("EMP001")))

	err := repo.Create(ctx, openSession("EMP001"))
	require.ErrorIs(t, err, ErrDuplicateCode)

	// Still exactly one document for the code.
	session, err := repo.GetByCode(ctx, "EMP001")
	require.NoError(t, err)
	require.NotNil(t, session)
}

func TestSessionRepo_EndActive(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, openSession("EMP001")))

	ended, err := repo.EndActive(ctx, "EMP001", time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, ended)
	require.NotNil(t, ended.EndTime)
	require.NotNil(t, ended.TotalMs)
	require.GreaterOrEqual(t, *ended.TotalMs, int64(0))
	require.Equal(t, ended.EndTime.Sub(ended.StartTime).Milliseconds(), *ended.TotalMs)

	// Closed sessions no longer match the active lookup.
	active, err := repo.GetActive(ctx, "EMP001")
	require.NoError(t, err)
	require.Nil(t, active)

	// A second end finds nothing open.
	again, err := repo.EndActive(ctx, "EMP001", time.Now().UTC())
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestSessionRepo_EndActiveUnknownCode(t *testing.T) {
	repo := setupTestRepo(t)

	ended, err := repo.EndActive(context.Background(), "UNKNOWN", time.Now().UTC())
	require.NoError(t, err)
	require.Nil(t, ended)
}

func TestSessionRepo_ConcurrentCreates(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, openSession("RACE01"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrDuplicateCode)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestSessionRepo_ConcurrentEnds(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, openSession("RACE02")))

	const n = 8
	var wg sync.WaitGroup
	results := make([]*model.WorkSession, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.EndActive(ctx, "RACE02", time.Now().UTC())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i] != nil {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded)
}
