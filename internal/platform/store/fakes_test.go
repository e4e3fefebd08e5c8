package store

import (
	"context"
	"errors"
)

// fakeRows iterates canned rows; each Scan copies row values into float64 or string pointers
type fakeRows struct {
	data [][]any
	i    int
	err  error
	shut bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	if len(dest) != len(row) {
		return errors.New("scan arity")
	}
	for j, d := range dest {
		switch p := d.(type) {
		case *float64:
			*p = row[j].(float64)
		case *string:
			*p = row[j].(string)
		case *int:
			*p = row[j].(int)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            { r.shut = true }
func (r *fakeRows) Columns() []string { return nil }

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakePG struct {
	rows    *fakeRows
	tag     fakeTag
	pingErr error
	closed  bool
}

func (f *fakePG) Exec(context.Context, string, ...any) (CommandTag, error) { return f.tag, nil }
func (f *fakePG) Query(context.Context, string, ...any) (Rows, error)      { return f.rows, nil }
func (f *fakePG) QueryRow(context.Context, string, ...any) Row {
	f.rows.Next()
	return f.rows
}
func (f *fakePG) Tx(_ context.Context, fn func(RowQuerier) error) error { return fn(f) }
func (f *fakePG) Ping(context.Context) error                            { return f.pingErr }
func (f *fakePG) Close() error                                          { f.closed = true; return nil }

type fakeCH struct {
	pingErr error
	closed  bool
}

func (f *fakeCH) Insert(context.Context, string, [][]any) error { return nil }
func (f *fakeCH) Exec(context.Context, string, ...any) error    { return nil }
func (f *fakeCH) Query(context.Context, string, ...any) (Rows, error) {
	return &fakeRows{}, nil
}
func (f *fakeCH) Ping(context.Context) error { return f.pingErr }
func (f *fakeCH) Close() error               { f.closed = true; return nil }
