//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCoalesceWithMySQL runs the CLI against a MySQL backend.
func TestCoalesceWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "segments",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/segments", host, port.Port())
	env := []string{
		"SEGCOALESCE_DB_BACKEND=mysql",
		"SEGCOALESCE_DB_CONNECT=" + connStr,
		"SEGCOALESCE_COLOR=no",
	}

	// Create the schema through migrations first
	_, err = runCommand(t, env, "db", "migrate")
	require.NoError(t, err)

	verifyCoalesced(t, env)

	// Per-group transactions take GET_LOCK on every definer
	_, err = runCommand(t, env, "coalesce", "--start", "1000000000", "--end", "1000001000", "--tx-mode", "group")
	require.NoError(t, err)

	_, err = runCommand(t, env, "db", "status")
	require.NoError(t, err)
}

// TestCoalesceWithPostgres runs the CLI against a PostgreSQL backend.
func TestCoalesceWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	env := []string{
		"SEGCOALESCE_DB_BACKEND=postgresql",
		"SEGCOALESCE_DB_CONNECT=" + connStr,
		"SEGCOALESCE_COLOR=no",
	}

	// Without migrate: Open creates the tables itself
	verifyCoalesced(t, env)

	// Advisory locks are transaction scoped, so a second group-mode pass must not block
	_, err = runCommand(t, env, "coalesce", "--start", "1000000000", "--end", "1000001000", "--tx-mode", "group")
	require.NoError(t, err)

	// Recording version 1 over the tables Open created is a no-op, rolling back drops them
	_, err = runCommand(t, env, "db", "migrate")
	require.NoError(t, err)
	output, err := runCommand(t, env, "db", "migrate", "--target-version", "0")
	require.NoError(t, err)
	require.Contains(t, output, "rolled back from version 1 to version 0")
}
