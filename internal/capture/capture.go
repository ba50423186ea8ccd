// Package capture holds the pure text transforms applied to raw pane
// output: trailing-blank trimming, startup-banner stripping, and the
// two-dimensional tail-preserving truncation policy. None of these touch
// the multiplexer, so line-boundary edge cases are testable with literal
// fixture strings.
package capture

import (
	"regexp"
	"strings"

	"github.com/timvw/pane-wrangler/internal/model"
)

// DefaultLines is the scrollback depth requested when the caller does
// not specify one.
const DefaultLines = 500

// DefaultMaxBytes caps captured output size when no byte budget is
// configured.
const DefaultMaxBytes = 64 * 1024

// versionLineRe recognizes the version-announcement line of a coding
// agent's startup banner (e.g. "agent v1.2.3").
var versionLineRe = regexp.MustCompile(`\bv\d+\.\d+\.\d+\b`)

// extensionsLineRe recognizes the head of an "extensions loaded" block.
var extensionsLineRe = regexp.MustCompile(`(?i)extensions? loaded`)

// TrimTrailingBlank strips trailing blank (whitespace-only) lines.
func TrimTrailingBlank(text string) string {
	lines := strings.Split(text, "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// StripStartupBanner removes a coding agent's startup noise from text.
//
// The version-announcement line itself is kept — it records that startup
// occurred — but the contiguous help block following it, up to the next
// blank line, is dropped. Any "extensions loaded" block is dropped
// entirely, through its trailing blank line.
func StripStartupBanner(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if extensionsLineRe.MatchString(line) {
			// Skip through the trailing blank line of the block.
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}

		out = append(out, line)

		if versionLineRe.MatchString(line) {
			// Drop the contiguous block after the version line.
			for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
				i++
			}
		}
	}
	return strings.Join(out, "\n")
}

// Truncate bounds text by both a maximum line count and a maximum byte
// count, keeping the tail — the most recent output matters most. The
// returned stats report how much of the original was kept.
func Truncate(text string, maxLines, maxBytes int) model.CaptureResult {
	if maxLines <= 0 {
		maxLines = DefaultLines
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	lines := strings.Split(text, "\n")
	totalLines := len(lines)
	totalBytes := len(text)

	kept := lines
	if len(kept) > maxLines {
		kept = kept[len(kept)-maxLines:]
	}
	// Drop whole lines from the front until the byte budget holds, but
	// always keep at least the final line.
	for len(kept) > 1 && byteLen(kept) > maxBytes {
		kept = kept[1:]
	}

	shown := strings.Join(kept, "\n")
	return model.CaptureResult{
		Text:       shown,
		Truncated:  len(kept) < totalLines || len(shown) < totalBytes,
		ShownLines: len(kept),
		TotalLines: totalLines,
		ShownBytes: len(shown),
		TotalBytes: totalBytes,
	}
}

// byteLen is the joined length of lines without building the string.
func byteLen(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	if len(lines) > 1 {
		n += len(lines) - 1
	}
	return n
}

// CountNonBlank counts the non-blank lines in text. The startup poll
// loop uses this as its progress threshold.
func CountNonBlank(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
