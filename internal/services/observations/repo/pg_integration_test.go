//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/store"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

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
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, _ := c.Host(ctx)
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/bioreactor?sslmode=disable", host, port.Port())
}

func TestPGBackend_Integration(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: startPostgres(t)}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })

	b := NewPGBackend(st.PG, 2*time.Second)
	if err := b.Repo().EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	recs := make([]Record, 0, 1201)
	for i := range 1200 {
		recs = append(recs, rec("B001", float64(i%600), nil))
	}
	recs = append(recs, rec("B002", 3, nil))

	var n int
	err = b.InTx(ctx, func(r Repo) error {
		var err error
		n, err = r.Insert(ctx, recs)
		return err
	})
	if err != nil || n != 1201 {
		t.Fatalf("insert n=%d err=%v", n, err)
	}

	rows, err := b.Repo().ListByBatch(ctx, "B001", 10000)
	if err != nil || len(rows) != 1200 {
		t.Fatalf("rows=%d err=%v", len(rows), err)
	}
	if !observation.IsSorted(rows) {
		t.Fatal("rows not time ordered")
	}

	capped, _ := b.Repo().ListByBatch(ctx, "B001", 5)
	if len(capped) != 5 {
		t.Fatalf("limit ignored: %d", len(capped))
	}

	batches, err := b.Repo().ListBatches(ctx)
	if err != nil || len(batches) != 2 || batches[0].Rows != 1200 || batches[1].MaxTimeHr != 3 {
		t.Fatalf("batches %+v err=%v", batches, err)
	}

	dup := []Record{recs[0]}
	err = b.InTx(ctx, func(r Repo) error { _, err := r.Insert(ctx, dup); return err })
	if !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("want duplicate key, got %v", err)
	}
}
