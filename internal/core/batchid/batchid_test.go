package batchid

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"B001", "B001"},
		{"b001", "B001"},
		{"  b001\t", "B001"},
		{"ｂ００１", "B001"},
		{"B\u200d001", "B001"},
		{"run-7.a", "RUN-7.A"},
		{"b0\xff01", "B001"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestValid(t *testing.T) {
	ok := []string{"B001", "RUN-7.A", "X_1"}
	bad := []string{"", "B 001", "B/001", "b001", string(make([]byte, MaxLen+1))}
	for _, s := range ok {
		if !Valid(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	for _, s := range bad {
		if Valid(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestFormat(t *testing.T) {
	if Format(1) != "B001" || Format(20) != "B020" || Format(1234) != "B1234" {
		t.Fatalf("unexpected ids %s %s %s", Format(1), Format(20), Format(1234))
	}
}
