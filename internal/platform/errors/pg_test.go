package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgCode(t *testing.T) {
	cases := map[string]ErrorCode{
		"23505": ErrorCodeDuplicateKey,
		"23503": ErrorCodeInvalidArgument,
		"22003": ErrorCodeInvalidArgument,
		"23514": ErrorCodeValidation,
		"57P03": ErrorCodeUnavailable,
		"42P01": ErrorCodeUnavailable,
		"40001": ErrorCodeDB,
		"XX000": ErrorCodeDB,
	}
	for state, want := range cases {
		got, ok := PgCode(fmt.Errorf("exec: %w", &pgconn.PgError{Code: state}))
		if !ok || got != want {
			t.Fatalf("PgCode(%s) = %s,%v want %s", state, got, ok, want)
		}
	}
	if c, ok := PgCode(pgx.ErrNoRows); !ok || c != ErrorCodeNotFound {
		t.Fatal("no rows should map to not found")
	}
	if _, ok := PgCode(stderrs.New("x")); ok {
		t.Fatal("foreign error should not classify")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil passthrough")
	}
	err := FromPostgres(&pgconn.PgError{Code: "23502", ColumnName: "batch_id"}, "insert observation")
	e, ok := As(err)
	if !ok || e.Code() != ErrorCodeValidation || e.Field() != "batch_id" {
		t.Fatalf("FromPostgres = %+v", e)
	}
	if !IsDuplicateKey(FromPostgres(&pgconn.PgError{Code: "23505"}, "dup")) {
		t.Fatal("duplicate key should be detectable through the wrap")
	}
	if CodeOf(FromPostgres(stderrs.New("driver"), "x")) != ErrorCodeDB {
		t.Fatal("non pg errors default to DB")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("q: %w", context.Canceled), false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique", &pgconn.PgError{Code: "23505"}, false},
		{"commit text", stderrs.New("commit unexpectedly resulted in rollback"), true},
		{"ch overload", &clickhouse.Exception{Code: 202}, true},
		{"ch syntax", &clickhouse.Exception{Code: 62}, false},
		{"plain", stderrs.New("nope"), false},
	}
	for _, c := range cases {
		if got := Retryable(c.err); got != c.want {
			t.Fatalf("%s: Retryable = %v want %v", c.name, got, c.want)
		}
	}
}

func TestCHCode(t *testing.T) {
	cases := map[int32]ErrorCode{
		53:  ErrorCodeInvalidArgument,
		159: ErrorCodeTimeout,
		60:  ErrorCodeUnavailable,
		516: ErrorCodeUnavailable,
		1:   ErrorCodeDB,
	}
	for code, want := range cases {
		err := FromClickhouse(fmt.Errorf("query: %w", &clickhouse.Exception{Code: code, Message: "x"}), "select")
		if CodeOf(err) != want {
			t.Fatalf("ch %d -> %s want %s", code, CodeOf(err), want)
		}
	}
	if _, ok := CHCode(stderrs.New("x")); ok {
		t.Fatal("foreign error should not classify")
	}
	if FromClickhouse(nil, "x") != nil {
		t.Fatal("nil passthrough")
	}
}
