//go:build integration_pg

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres and returns its DSN
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "bioreactor",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/bioreactor?sslmode=disable", host, port.Port())
}

func TestPGAdapter_Integration(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{PG: PGConfig{Enabled: true, URL: startPostgres(t), LogSQL: true}}, WithLogger(*logger.Get()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })

	if err := st.Guard(ctx); err != nil {
		t.Fatalf("guard: %v", err)
	}
	if _, err := st.PG.Exec(ctx, `CREATE TABLE runs (batch_id text PRIMARY KEY, hours double precision NOT NULL)`); err != nil {
		t.Fatal(err)
	}

	err = st.PG.Tx(ctx, func(q RowQuerier) error {
		if err := ExecOne(ctx, q, `INSERT INTO runs VALUES ($1, $2)`, "B001", 120.0); err != nil {
			return err
		}
		return ExecOne(ctx, q, `INSERT INTO runs VALUES ($1, $2)`, "B002", 96.0)
	})
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err = st.PG.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO runs VALUES ($1, $2)`, "B003", 1.0); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("tx err = %v", err)
	}

	n, err := Scalar[int64](ctx, st.PG, `SELECT count(*) FROM runs`)
	if err != nil || n != 2 {
		t.Fatalf("rolled back row leaked: n=%d err=%v", n, err)
	}

	ids, err := Many(ctx, st.PG, func(r Row) (string, error) {
		var id string
		var h float64
		return id, r.Scan(&id, &h)
	}, `SELECT batch_id, hours FROM runs ORDER BY batch_id`)
	if err != nil || len(ids) != 2 || ids[0] != "B001" {
		t.Fatalf("many: %v %v", ids, err)
	}

	_, err = st.PG.Exec(ctx, `INSERT INTO runs VALUES ($1, $2)`, "B001", 1.0)
	if !perr.IsDuplicateKey(err) {
		t.Fatalf("want duplicate key, got %v", err)
	}
	if code := perr.CodeOf(perr.FromPostgres(err, "insert run")); code != perr.ErrorCodeDuplicateKey {
		t.Fatalf("code = %v", code)
	}
}
