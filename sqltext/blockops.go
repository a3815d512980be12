package sqltext

import "strings"

// Selection is an ordered pair of byte offsets; Start == End is a plain
// cursor. Block ops expand it to whole lines before transforming.
type Selection struct {
	Start, End int
}

func (s Selection) normalized(n int) Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	if s.Start < 0 {
		s.Start = 0
	}
	if s.End > n {
		s.End = n
	}
	if s.Start > n {
		s.Start = n
	}
	return s
}

// lineSpan expands sel to the start of its first line and the end of its
// last line, including that line's trailing newline when present.
func lineSpan(text string, sel Selection) (int, int) {
	sel = sel.normalized(len(text))
	start := strings.LastIndexByte(text[:sel.Start], '\n') + 1
	end := sel.End
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		end += i + 1
	} else {
		end = len(text)
	}
	return start, end
}

// Indent prefixes every non-empty line in the selection's line span with two
// spaces. Returns the new buffer and whether anything changed.
func Indent(text string, sel Selection) (string, bool) {
	return transformLines(text, sel, func(line string) (string, bool) {
		if line == "" {
			return line, false
		}
		return "  " + line, true
	})
}

// Outdent removes one level of leading indentation from each line in the
// span: two spaces, else one tab, else one space.
func Outdent(text string, sel Selection) (string, bool) {
	return transformLines(text, sel, func(line string) (string, bool) {
		switch {
		case strings.HasPrefix(line, "  "):
			return line[2:], true
		case strings.HasPrefix(line, "\t"):
			return line[1:], true
		case strings.HasPrefix(line, " "):
			return line[1:], true
		}
		return line, false
	})
}

// ToggleComment comments or uncomments the selection's line span as a whole:
// if every non-blank line already starts with "--" (after its indentation)
// the markers are stripped, otherwise "-- " is inserted after each non-blank
// line's indentation. Blank lines are ignored by the check and untouched by
// the transform.
func ToggleComment(text string, sel Selection) (string, bool) {
	start, end := lineSpan(text, sel)
	lines := strings.SplitAfter(text[start:end], "\n")

	allCommented := true
	hasContent := false
	for _, ln := range lines {
		body := strings.TrimLeft(strings.TrimSuffix(ln, "\n"), " \t")
		if body == "" {
			continue
		}
		hasContent = true
		if !strings.HasPrefix(body, "--") {
			allCommented = false
		}
	}
	if !hasContent {
		return text, false
	}

	transform := func(line string) (string, bool) {
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			return line, false
		}
		indent := line[:len(line)-len(body)]
		if allCommented {
			body = strings.TrimPrefix(body, "--")
			body = strings.TrimPrefix(body, " ")
			return indent + body, true
		}
		return indent + "-- " + body, true
	}

	changed := false
	for i, ln := range lines {
		nl := ""
		body := ln
		if strings.HasSuffix(ln, "\n") {
			nl = "\n"
			body = ln[:len(ln)-1]
		}
		if out, ok := transform(body); ok {
			lines[i] = out + nl
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	return text[:start] + strings.Join(lines, "") + text[end:], true
}

// transformLines applies fn to every line (without its newline) in the
// selection's line span and stitches the buffer back together.
func transformLines(text string, sel Selection, fn func(string) (string, bool)) (string, bool) {
	start, end := lineSpan(text, sel)
	lines := strings.SplitAfter(text[start:end], "\n")
	changed := false
	for i, ln := range lines {
		nl := ""
		body := ln
		if strings.HasSuffix(ln, "\n") {
			nl = "\n"
			body = ln[:len(ln)-1]
		}
		if out, ok := fn(body); ok {
			lines[i] = out + nl
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	return text[:start] + strings.Join(lines, "") + text[end:], true
}
