//go:build integration

package gormstore

import (
	"LinkHub-Backend/internal/config"
	"LinkHub-Backend/internal/database"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// go test -tags integration ./internal/repository/gormstore/...
func TestStorage_Postgres(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("linkhub"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	db, err := database.NewConnection(&config.Database{
		Driver:          "postgres",
		Host:            host,
		Port:            portNum,
		User:            "postgres",
		Password:        "postgres",
		DBName:          "linkhub",
		SSLMode:         "disable",
		Timezone:        "UTC",
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: "1h",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db, zap.NewNop()) })

	runStorageSuite(t, migrated(t, db))
}
