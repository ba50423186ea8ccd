package capture

import (
	"fmt"
	"strings"
	"testing"
)

func TestTrimTrailingBlank(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only blanks", "\n\n   \n\t\n", ""},
		{"no trailing blanks", "a\nb", "a\nb"},
		{"trailing newlines", "a\nb\n\n\n", "a\nb"},
		{"trailing whitespace lines", "a\n   \n\t \n", "a"},
		{"interior blanks kept", "a\n\nb\n\n", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimTrailingBlank(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripStartupBanner_VersionBlock(t *testing.T) {
	in := strings.Join([]string{
		"agent v1.2.3",
		"Type /help for commands",
		"Press ? for shortcuts",
		"",
		"real output line",
	}, "\n")

	got := StripStartupBanner(in)

	if !strings.Contains(got, "agent v1.2.3") {
		t.Error("version line must survive the strip")
	}
	if strings.Contains(got, "/help") || strings.Contains(got, "shortcuts") {
		t.Errorf("help block should be dropped, got %q", got)
	}
	if !strings.Contains(got, "real output line") {
		t.Errorf("output after the banner must survive, got %q", got)
	}
}

func TestStripStartupBanner_ExtensionsBlock(t *testing.T) {
	in := strings.Join([]string{
		"3 extensions loaded:",
		"  - foo",
		"  - bar",
		"",
		"prompt ready",
	}, "\n")

	got := StripStartupBanner(in)

	if strings.Contains(got, "extensions loaded") || strings.Contains(got, "- foo") {
		t.Errorf("extensions block should be dropped entirely, got %q", got)
	}
	if !strings.Contains(got, "prompt ready") {
		t.Errorf("output after the block must survive, got %q", got)
	}
}

func TestStripStartupBanner_NoBanner(t *testing.T) {
	in := "plain output\nmore output"
	if got := StripStartupBanner(in); got != in {
		t.Errorf("text without a banner must pass through unchanged, got %q", got)
	}
}

func TestStripStartupBanner_VersionMidText(t *testing.T) {
	// A version-looking line deep in output still only eats its
	// contiguous block, never past a blank line.
	in := strings.Join([]string{
		"installed tool v2.0.1",
		"usage: tool [args]",
		"",
		"unrelated",
	}, "\n")
	got := StripStartupBanner(in)
	if !strings.Contains(got, "unrelated") {
		t.Errorf("strip must stop at the blank line, got %q", got)
	}
}

func TestTruncate_NoTruncation(t *testing.T) {
	res := Truncate("a\nb\nc", 10, 1024)
	if res.Truncated {
		t.Error("small input should not be truncated")
	}
	if res.Text != "a\nb\nc" {
		t.Errorf("text: got %q", res.Text)
	}
	if res.ShownLines != 3 || res.TotalLines != 3 {
		t.Errorf("lines: got %d/%d, want 3/3", res.ShownLines, res.TotalLines)
	}
}

func TestTruncate_LineCap_KeepsTail(t *testing.T) {
	var lines []string
	for i := 1; i <= 20; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	res := Truncate(strings.Join(lines, "\n"), 5, 1024*1024)

	if !res.Truncated {
		t.Fatal("expected truncation")
	}
	if res.ShownLines != 5 || res.TotalLines != 20 {
		t.Errorf("lines: got %d/%d, want 5/20", res.ShownLines, res.TotalLines)
	}
	if !strings.HasSuffix(res.Text, "line 20") {
		t.Errorf("most recent line must survive, got %q", res.Text)
	}
	if !strings.HasPrefix(res.Text, "line 16") {
		t.Errorf("expected tail window starting at line 16, got %q", res.Text)
	}
}

func TestTruncate_ByteCap_KeepsTail(t *testing.T) {
	long := strings.Repeat("x", 100)
	in := long + "\n" + long + "\nfinal"
	res := Truncate(in, 100, 120)

	if !res.Truncated {
		t.Fatal("expected truncation")
	}
	if res.ShownBytes > 120 {
		t.Errorf("byte budget exceeded: %d > 120", res.ShownBytes)
	}
	if !strings.HasSuffix(res.Text, "final") {
		t.Errorf("final line must survive, got %q", res.Text)
	}
}

func TestTruncate_ByteCap_AlwaysKeepsLastLine(t *testing.T) {
	// A single line larger than the budget is kept whole rather than
	// returning nothing.
	in := strings.Repeat("y", 200)
	res := Truncate(in, 100, 50)
	if res.Text != in {
		t.Errorf("last line must be kept even over budget, got %d bytes", len(res.Text))
	}
}

func TestTruncate_StatsConsistent(t *testing.T) {
	in := "aaaa\nbbbb\ncccc\ndddd"
	res := Truncate(in, 2, 1024)
	if res.TotalBytes != len(in) {
		t.Errorf("total bytes: got %d, want %d", res.TotalBytes, len(in))
	}
	if res.ShownBytes != len(res.Text) {
		t.Errorf("shown bytes: got %d, want %d", res.ShownBytes, len(res.Text))
	}
}

func TestCountNonBlank(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"\n\n", 0},
		{"a", 1},
		{"a\n\nb\n  \nc", 3},
	}
	for _, tt := range tests {
		if got := CountNonBlank(tt.in); got != tt.want {
			t.Errorf("CountNonBlank(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
