package record

import (
	"strings"
	"unicode/utf8"
)

// Splitter yields candidate objects from a raw stream, one at a time.
// A splitter is consumed once and never fails; malformed candidates are
// reported by the Parser.
type Splitter interface {
	Scan() bool
	Candidate() Candidate
}

// ScanSplitter walks the stream with a brace-depth state machine and emits a
// candidate each time the depth returns to zero.
//
// Rules:
//   - up to skipLeading leading runes are dropped (the stream normally starts
//     with a stray '['); a '{' is never dropped since it opens the first record.
//   - whitespace and commas between objects are separators.
//   - a lone trailing ']' closes the stream.
//   - braces inside string literals are ignored, escapes are honoured.
//   - a newline immediately followed by '{' starts a new record when the
//     current one was cut off: inside a string, or after a byte that cannot
//     precede a value. The unterminated text before it becomes its own
//     candidate. A '{' on a new line after ':', ',' or '[' is a nested value.
//   - any other bytes between objects, and an object still open at the end of
//     the input, become candidates so they surface as failures.
type ScanSplitter struct {
	text    string
	pos     int
	next    int
	current Candidate
}

// NewScanSplitter returns a ScanSplitter over text.
func NewScanSplitter(text string, skipLeading int) *ScanSplitter {
	return &ScanSplitter{text: text, pos: skipNoise(text, skipLeading)}
}

func skipNoise(text string, n int) int {
	pos := 0
	for i := 0; i < n && pos < len(text); i++ {
		if text[pos] == '{' {
			break
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return pos
}

// Scan advances to the next candidate. It returns false once the input is exhausted.
func (s *ScanSplitter) Scan() bool {
	s.skipSeparators()
	if s.pos >= len(s.text) {
		return false
	}
	if s.text[s.pos] == ']' && strings.TrimSpace(s.text[s.pos+1:]) == "" {
		s.pos = len(s.text)
		return false
	}

	start := s.pos
	if s.text[start] != '{' {
		end := strings.IndexByte(s.text[start:], '{')
		if end < 0 {
			end = len(s.text)
		} else {
			end += start
		}
		s.emit(start, end, end)
		return true
	}

	depth := 0
	inString := false
	escaped := false
	var last byte // last significant byte outside strings
	for i := start; i < len(s.text); i++ {
		c := s.text[i]
		if c == '\n' && i+1 < len(s.text) && s.text[i+1] == '{' && (inString || !expectsValue(last)) {
			// The record was cut off: a raw newline inside a string, or a
			// new object where no value can start.
			s.emit(start, i, i+1)
			return true
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				last = c
			}
			continue
		}
		if !isSpace(c) {
			last = c
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.emit(start, i+1, i+1)
				return true
			}
		}
	}

	s.emit(start, len(s.text), len(s.text))
	return true
}

// Candidate returns the candidate found by the last call to Scan.
func (s *ScanSplitter) Candidate() Candidate {
	return s.current
}

func (s *ScanSplitter) emit(start, end, resume int) {
	s.current = Candidate{
		Index: s.next,
		Text:  strings.TrimRight(s.text[start:end], " \t\r\n,"),
	}
	s.next++
	s.pos = resume
}

// expectsValue reports whether a JSON value may follow b.
func expectsValue(b byte) bool {
	return b == ':' || b == ',' || b == '['
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (s *ScanSplitter) skipSeparators() {
	for s.pos < len(s.text) {
		switch s.text[s.pos] {
		case ' ', '\t', '\r', '\n', ',':
			s.pos++
		default:
			return
		}
	}
}

// DelimitedSplitter reproduces the historical splitting of the stream: drop
// the first rune, split on the delimiter keeping it attached, cut
// len(delimiter) bytes off the end of every piece and wrap the rest in braces.
// A delimiter with a newline ("}\n{") therefore trims three bytes, one
// without ("}{") trims two.
type DelimitedSplitter struct {
	rest      string
	delimiter string
	next      int
	current   Candidate
	entry     string
}

// NewDelimitedSplitter returns a DelimitedSplitter over text.
func NewDelimitedSplitter(text, delimiter string, skipLeading int) *DelimitedSplitter {
	pos := 0
	for i := 0; i < skipLeading && pos < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return &DelimitedSplitter{rest: text[pos:], delimiter: delimiter}
}

// Scan advances to the next piece.
func (s *DelimitedSplitter) Scan() bool {
	if s.rest == "" {
		return false
	}

	var piece string
	if idx := strings.Index(s.rest, s.delimiter); idx >= 0 {
		piece = s.rest[:idx+len(s.delimiter)]
		s.rest = s.rest[idx+len(s.delimiter):]
	} else {
		piece = s.rest
		s.rest = ""
	}

	content := ""
	if len(piece) > len(s.delimiter) {
		content = piece[:len(piece)-len(s.delimiter)]
	}
	s.current = Candidate{Index: s.next, Text: "{" + content + "}"}
	s.entry = piece
	s.next++
	return true
}

// Candidate returns the rebuilt object for the current piece.
func (s *DelimitedSplitter) Candidate() Candidate {
	return s.current
}

// Entry returns the current piece as it appeared in the stream, delimiter included.
func (s *DelimitedSplitter) Entry() string {
	return s.entry
}
