package numbering_test

import (
	"testing"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/numbering"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		year int
		seq  int64
		want string
	}{
		{2026, 1, "2026-0001"},
		{2026, 42, "2026-0042"},
		{2026, 9999, "2026-9999"},
		{2026, 12345, "2026-12345"},
	}
	for _, tt := range tests {
		if got := numbering.Format(tt.year, tt.seq); got != tt.want {
			t.Errorf("Format(%d, %d): got %q, want %q", tt.year, tt.seq, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	year, seq, err := numbering.Parse("2026-0042")
	if err != nil {
		t.Fatal(err)
	}
	if year != 2026 || seq != 42 {
		t.Errorf("got %d/%d, want 2026/42", year, seq)
	}

	for _, bad := range []string{"", "2026", "x-1", "2026-y"} {
		if _, _, err := numbering.Parse(bad); err == nil {
			t.Errorf("Parse(%q): expected error", bad)
		}
	}
}

func TestKey(t *testing.T) {
	if got := numbering.Key("acme", document.TypeInvoice, 2026); got != "acme:invoice-2026" {
		t.Errorf("got %q", got)
	}
}
