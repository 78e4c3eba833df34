package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
	"github.com/substratehq/substrate/internal/search"
)

const testDims = 4

// pgStore is the shared store for all integration tests in this file.
var pgStore *PostgresStore

func TestMain(m *testing.M) {
	if os.Getenv("SUBSTRATE_INTEGRATION") == "" {
		// Unit runs skip the containerized suite entirely.
		os.Exit(m.Run())
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg17",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "substrate",
			"POSTGRES_PASSWORD": "substrate",
			"POSTGRES_DB":       "substrate",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://substrate:substrate@%s:%s/substrate?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pgStore, err = NewPostgresStore(ctx, dsn, testDims, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create store: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = pgStore.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if pgStore == nil {
		t.Skip("set SUBSTRATE_INTEGRATION=1 to run postgres integration tests")
	}
}

func TestPostgresProfileRoundTrip(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	p := model.Profile{
		UserID: "pg-alice",
		Capabilities: []model.Capability{{
			ID: uuid.New(), Type: model.TypeSkill, Name: "ROS2 navigation",
			Proficiency: 0.9, Confidence: 0.8, Privacy: model.PrivacyNetwork,
		}},
		Timezone: "UTC",
	}
	require.NoError(t, pgStore.SaveProfile(ctx, p))

	got, err := pgStore.LoadProfile(ctx, "pg-alice")
	require.NoError(t, err)
	assert.Equal(t, p.Capabilities[0].ID, got.Capabilities[0].ID)

	p.Timezone = "Asia/Tokyo"
	require.NoError(t, pgStore.SaveProfile(ctx, p))
	got, err = pgStore.LoadProfile(ctx, "pg-alice")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", got.Timezone)

	_, err = pgStore.LoadProfile(ctx, "pg-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresOutcomesAndPatterns(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	o := model.CollaborationOutcome{
		ID: uuid.New(), MatchID: uuid.New(), Success: true,
		ActualTimeline: "2 weeks",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, pgStore.AppendOutcome(ctx, o))

	outcomes, err := pgStore.ListOutcomes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, outcomes)

	patterns := map[string]learn.Pattern{"skill:skill": {Value: 0.75, Outcomes: 3}}
	require.NoError(t, pgStore.SavePatterns(ctx, patterns))
	got, err := pgStore.LoadPatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, patterns, got)
}

func TestPostgresVectorSearch(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	mine := uuid.New()
	near := uuid.New()
	far := uuid.New()

	require.NoError(t, pgStore.Upsert(ctx, []search.Point{
		{CapabilityID: mine, UserID: "owner", Type: "skill", Vector: []float32{1, 0, 0, 0}},
		{CapabilityID: near, UserID: "other", Type: "skill", Tags: []string{"ros2"}, Vector: []float32{0.9, 0.1, 0, 0}},
		{CapabilityID: far, UserID: "other", Type: "resource", Vector: []float32{0, 0, 0, 1}},
	}))

	results, err := pgStore.FindSimilar(ctx, []float32{1, 0, 0, 0}, 10, "owner")
	require.NoError(t, err)
	require.Len(t, results, 2, "the querying user's own capabilities are excluded")
	assert.Equal(t, near, results[0].CapabilityID, "nearest vector ranks first")
	assert.Greater(t, results[0].Score, results[1].Score)

	require.NoError(t, pgStore.Delete(ctx, []uuid.UUID{near, far}))
	results, err = pgStore.FindSimilar(ctx, []float32{1, 0, 0, 0}, 10, "owner")
	require.NoError(t, err)
	assert.Empty(t, results)
}
