package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	fieldElapsed = "elapsed"
	fieldName    = "name"
)

// Parser turns candidate text into TimerRecords.
type Parser struct {
	groupKeyFields []string
}

// NewParser returns a Parser that reads the group key from the first present
// field of groupKeyFields.
func NewParser(groupKeyFields []string) (*Parser, error) {
	if len(groupKeyFields) == 0 {
		return nil, ErrNoGroupKeyList
	}
	fields := make([]string, len(groupKeyFields))
	copy(fields, groupKeyFields)
	return &Parser{groupKeyFields: fields}, nil
}

// Parse converts a candidate into a record, or into a Failure carrying the
// candidate's position, its text and the reason it was rejected.
func (p *Parser) Parse(c Candidate) (TimerRecord, *Failure) {
	rec, err := p.ParseRecord(c.Text)
	if err != nil {
		return TimerRecord{}, &Failure{Line: c.Index, Entry: c.Text, Cause: err.Error()}
	}
	return rec, nil
}

// ParseRecord decodes text as a JSON object and extracts the timer fields.
func (p *Parser) ParseRecord(text string) (TimerRecord, error) {
	value, err := decodeJSON(text)
	if err != nil {
		return TimerRecord{}, err
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return TimerRecord{}, fmt.Errorf("%w: `%s`", ErrParseToObject, literal(value))
	}

	rawElapsed := obj[fieldElapsed]
	elapsed, ok := asUint64(rawElapsed)
	if !ok {
		return TimerRecord{}, fmt.Errorf("%w: `%s`", ErrParseToU64, literal(rawElapsed))
	}

	name := unquoted(obj[fieldName])
	if name == "" {
		return TimerRecord{}, ErrEmptyName
	}

	groupKey := "null"
	for _, field := range p.groupKeyFields {
		if v, exists := obj[field]; exists {
			groupKey = unquoted(v)
			break
		}
	}

	delete(obj, fieldElapsed)
	delete(obj, fieldName)
	for _, field := range p.groupKeyFields {
		delete(obj, field)
	}

	return TimerRecord{
		Name:     name,
		GroupKey: groupKey,
		Elapsed:  elapsed,
		Metadata: Payload(obj),
	}, nil
}

func decodeJSON(text string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing characters after offset %d", ErrInvalidJSON, dec.InputOffset())
	}
	return value, nil
}

// asUint64 accepts JSON integers in [0, 2^64). Fractions and exponents are
// rejected even when their value is integral.
func asUint64(v interface{}) (uint64, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if u, err := strconv.ParseUint(num.String(), 10, 64); err == nil {
		return u, true
	}
	if num.String() == "-0" {
		return 0, true
	}
	return 0, false
}

// unquoted renders v as JSON text and drops every '"'. Escapes are left as
// they are.
func unquoted(v interface{}) string {
	return strings.ReplaceAll(literal(v), `"`, "")
}

func literal(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
