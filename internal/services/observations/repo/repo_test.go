package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"bioreactor/internal/core/observation"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/store"
	"bioreactor/internal/platform/testkit"
	"bioreactor/internal/services/observations/domain"

	"github.com/google/uuid"
)

func rec(batch string, t float64, feed *float64) Record {
	return Record{
		ID:  uuid.New(),
		Row: domain.Row{Observation: observation.Observation{BatchID: batch, TimeHr: t}, FeedRate: feed},
	}
}

func TestPGInsert_Placeholders(t *testing.T) {
	f := 4.5
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args := pgInsert([]Record{rec("B001", 0, &f), rec("B001", 1, nil)}, now, 0)

	testkit.MustContain(t, sql, "insert into observations (id, batch_id, time_hr,")
	testkit.MustContain(t, sql, "($1, $2, $3,")
	testkit.MustContain(t, sql, "($14, $15,")
	testkit.MustContain(t, sql, "$26)")
	testkit.MustNotContain(t, sql, "$27")
	if len(args) != 26 {
		t.Fatalf("args = %d", len(args))
	}
	if args[11] != &f || args[24] != (*float64)(nil) {
		t.Fatalf("feed args %v %v", args[11], args[24])
	}
	if !args[25].(time.Time).After(args[12].(time.Time)) {
		t.Fatal("created_at must increase with input order")
	}
}

type insertTag int64

func (t insertTag) String() string      { return "INSERT" }
func (t insertTag) RowsAffected() int64 { return int64(t) }

// recordingPG keeps every Exec's args
type recordingPG struct {
	execs [][]any
}

func (r *recordingPG) Exec(_ context.Context, _ string, args ...any) (store.CommandTag, error) {
	r.execs = append(r.execs, args)
	return insertTag(len(args) / (len(columns) + 2)), nil
}

func (r *recordingPG) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (r *recordingPG) QueryRow(context.Context, string, ...any) store.Row        { return nil }

func TestPGInsert_CreatedAtSpansChunks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, args := pgInsert([]Record{rec("B001", 0, nil)}, now, pgChunk)
	if got := args[len(args)-1].(time.Time); !got.Equal(now.Add(pgChunk * time.Microsecond)) {
		t.Fatalf("created_at = %v", got)
	}

	q := &recordingPG{}
	recs := make([]Record, pgChunk+2)
	for i := range recs {
		recs[i] = rec("B001", 0, nil)
	}
	n, err := NewPG().Bind(q).Insert(context.Background(), recs)
	if err != nil || n != len(recs) || len(q.execs) != 2 {
		t.Fatalf("n=%d err=%v execs=%d", n, err, len(q.execs))
	}
	lastOfFirst := q.execs[0][len(q.execs[0])-1].(time.Time)
	firstOfSecond := q.execs[1][len(columns)+1].(time.Time)
	if !firstOfSecond.After(lastOfFirst) {
		t.Fatalf("second chunk %v not after first %v", firstOfSecond, lastOfFirst)
	}
}

// fakeCH records inserts and serves one canned result set
type fakeCH struct {
	table  string
	rows   [][]any
	execs  []string
	result store.Rows
	err    error
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return f.err
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.err
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return f.result, f.err }

func (f *fakeCH) Close() error { return nil }

type batchRows struct {
	data []domain.BatchInfo
	i    int
}

func (r *batchRows) Next() bool { r.i++; return r.i <= len(r.data) }

func (r *batchRows) Scan(dest ...any) error {
	b := r.data[r.i-1]
	*dest[0].(*string) = b.BatchID
	*dest[1].(*int64) = b.Rows
	*dest[2].(*float64) = b.MinTimeHr
	*dest[3].(*float64) = b.MaxTimeHr
	return nil
}

func (r *batchRows) Err() error        { return nil }
func (r *batchRows) Close()            {}
func (r *batchRows) Columns() []string { return nil }

func TestCHRepo(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCH{result: &batchRows{data: []domain.BatchInfo{{BatchID: "B001", Rows: 50, MaxTimeHr: 120}}}}
	b := NewCHBackend(fc)
	if b.Name() != "ch" {
		t.Fatal(b.Name())
	}

	if err := b.Repo().EnsureSchema(ctx); err != nil || len(fc.execs) != 2 {
		t.Fatalf("schema: %v %d", err, len(fc.execs))
	}
	testkit.MustContain(t, fc.execs[1], "order by (batch_id, time_hr, inserted_at)")

	var n int
	err := b.InTx(ctx, func(r Repo) error {
		var err error
		n, err = r.Insert(ctx, []Record{rec("B001", 0, nil), rec("B001", 1, nil)})
		return err
	})
	if err != nil || n != 2 || fc.table != CHTable || len(fc.rows[0]) != 13 {
		t.Fatalf("insert n=%d err=%v table=%s", n, err, fc.table)
	}

	got, err := b.Repo().ListBatches(ctx)
	if err != nil || len(got) != 1 || got[0].Rows != 50 {
		t.Fatalf("batches %+v %v", got, err)
	}

	fc.err = perr.Unavailablef("down")
	if _, err := b.Repo().ListByBatch(ctx, "B001", 10); !perr.IsCode(err, perr.ErrorCodeDB) && !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("query error: %v", err)
	}
	testkit.MustPanic(t, func() { NewCHBackend(nil) })
	testkit.MustPanic(t, func() { NewPGBackend(nil, time.Second) })
}

func TestColumnsMatchScanTargets(t *testing.T) {
	var o observation.Observation
	if len(scanTargets(&o)) != len(columns)-1 {
		t.Fatal("scan targets out of step with columns")
	}
	if !strings.HasPrefix(columns[0], "batch_id") {
		t.Fatal("batch_id must lead")
	}
}
