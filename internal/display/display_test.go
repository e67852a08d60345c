package display

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"你好世界", 5, "你好…"},
		{"👍🏽👍🏽👍🏽", 5, "👍🏽👍🏽…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if got := Truncate(tt.in, tt.max); Width(got) > tt.max && tt.max > 0 {
			t.Errorf("Truncate(%q, %d) width %d too large", tt.in, tt.max, Width(got))
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := TruncateMiddle("/very/long/path/to/page01.png", 15)
	if Width(got) > 15 {
		t.Fatalf("width %d > 15: %q", Width(got), got)
	}
	if got[:7] != "/very/l" || got[len(got)-7:] != "e01.png" {
		t.Fatalf("TruncateMiddle() = %q", got)
	}
	if got := TruncateMiddle("short.png", 15); got != "short.png" {
		t.Fatalf("short input changed: %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("line one\n\n  line two", 100); got != "line one line two" {
		t.Fatalf("Preview() = %q", got)
	}
}
