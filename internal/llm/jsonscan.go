package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type ScanStatus int

const (
	// ScanOK means a span was found and decoded.
	ScanOK ScanStatus = iota
	// ScanNoSpan means the delimiters were missing or out of order.
	ScanNoSpan
	// ScanMalformed means a span was found but did not decode.
	ScanMalformed
)

func (s ScanStatus) String() string {
	switch s {
	case ScanOK:
		return "ok"
	case ScanNoSpan:
		return "no_span"
	case ScanMalformed:
		return "malformed"
	}
	return "unknown"
}

var errNoSpan = errors.New("no json span in response")

type ScanResult[T any] struct {
	Value  T
	Status ScanStatus
	Err    error
}

// ScanObject decodes the text between the first '{' and the last '}'.
func ScanObject(text string) ScanResult[map[string]any] {
	span, ok := span(text, '{', '}')
	if !ok {
		return ScanResult[map[string]any]{Status: ScanNoSpan, Err: errNoSpan}
	}

	var obj map[string]any
	if err := decode(span, &obj); err != nil {
		return ScanResult[map[string]any]{Status: ScanMalformed, Err: err}
	}
	return ScanResult[map[string]any]{Value: obj, Status: ScanOK}
}

// ScanArray decodes the text between the first '[' and the last ']' into raw elements.
func ScanArray(text string) ScanResult[[]json.RawMessage] {
	span, ok := span(text, '[', ']')
	if !ok {
		return ScanResult[[]json.RawMessage]{Status: ScanNoSpan, Err: errNoSpan}
	}

	var items []json.RawMessage
	if err := decode(span, &items); err != nil {
		return ScanResult[[]json.RawMessage]{Status: ScanMalformed, Err: err}
	}
	return ScanResult[[]json.RawMessage]{Value: items, Status: ScanOK}
}

func span(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decode keeps numbers as json.Number so amounts survive without float rounding.
func decode(span string, v any) error {
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after json value")
	}
	return nil
}

// DecodeElement decodes one ScanArray element with numbers preserved.
func DecodeElement(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
