// Package inputbox detects in-flight human input inside a nested coding
// agent's interactive input box, so an automated sender does not clobber
// text a person is actively composing.
//
// The agent renders its input box between two horizontal-rule lines just
// above the status footer. Scanning from the bottom, the last pair of
// rule lines is authoritative even when earlier separator-like lines
// exist higher in scrollback.
package inputbox

import (
	"regexp"
	"strings"
)

// minRuleWidth is the minimum repeated-glyph width a line must have to
// count as an input-box border.
const minRuleWidth = 10

// ruleGlyphs are the box-drawing characters agents use for the borders.
var ruleGlyphs = map[rune]bool{
	'─': true, // U+2500 light horizontal
	'━': true, // U+2501 heavy horizontal
	'═': true, // U+2550 double horizontal
}

// ansiRe matches CSI color/style sequences and OSC sequences.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\a\x1b]*(\a|\x1b\\)`)

// promptGlyphs are bare prompt markers discarded from box content.
var promptGlyphs = map[string]bool{">": true, "❯": true}

// StripANSI removes terminal color/style escape sequences.
func StripANSI(text string) string {
	return ansiRe.ReplaceAllString(text, "")
}

// Detect scans captured pane text for the bottom-most input box and
// returns the text a human appears to be composing inside it. It returns
// ("", false) when no box is present or the box is empty.
func Detect(captured string) (string, bool) {
	lines := strings.Split(StripANSI(captured), "\n")

	// Collect indexes of rule lines; the last two delimit the box.
	var rules []int
	for i, line := range lines {
		if isRuleLine(line) {
			rules = append(rules, i)
		}
	}
	if len(rules) < 2 {
		return "", false
	}
	top, bottom := rules[len(rules)-2], rules[len(rules)-1]

	var parts []string
	for _, line := range lines[top+1 : bottom] {
		text := strings.TrimSpace(line)
		if text == "" || promptGlyphs[text] {
			continue
		}
		text = trimPrompt(text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// isRuleLine reports whether line consists solely of one repeated rule
// glyph, at least minRuleWidth wide.
func isRuleLine(line string) bool {
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) < minRuleWidth {
		return false
	}
	first := runes[0]
	if !ruleGlyphs[first] {
		return false
	}
	for _, r := range runes[1:] {
		if r != first {
			return false
		}
	}
	return true
}

// trimPrompt strips a leading prompt-and-space from typed text.
func trimPrompt(text string) string {
	for glyph := range promptGlyphs {
		if strings.HasPrefix(text, glyph+" ") {
			return strings.TrimSpace(text[len(glyph)+1:])
		}
	}
	return text
}
