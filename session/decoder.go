package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// InputDecoder turns a tool_use input into parameters for the renderer.
type InputDecoder interface {
	DecodeInput(raw json.RawMessage) (map[string]any, error)
}

var errNotObject = errors.New("tool input is not a JSON object")

// StrictDecoder accepts only a complete JSON object. Numbers are kept as
// json.Number so large integers survive.
type StrictDecoder struct{}

func (StrictDecoder) DecodeInput(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	if raw[0] != '{' {
		return nil, errNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tool input: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode tool input: trailing data")
	}
	return out, nil
}

// LenientDecoder first tries a strict decode and, failing that, closes any
// open string, array, or object in a truncated input and tries again. It is
// meant for inputs assembled from partial stream fragments.
type LenientDecoder struct{}

func (LenientDecoder) DecodeInput(raw json.RawMessage) (map[string]any, error) {
	out, err := StrictDecoder{}.DecodeInput(raw)
	if err == nil {
		return out, nil
	}
	repaired, ok := repairJSON(bytes.TrimSpace(raw))
	if !ok {
		return nil, err
	}
	if out, rerr := (StrictDecoder{}).DecodeInput(repaired); rerr == nil {
		return out, nil
	}
	return nil, err
}

// repairJSON appends whatever closing tokens a truncated JSON document needs.
// It reports false when the input is not a truncated object.
func repairJSON(raw []byte) ([]byte, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}

	var stack []byte
	inString, escaped := false, false
	for _, c := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return nil, false
			}
			stack = stack[:len(stack)-1]
		}
	}

	out := append([]byte(nil), raw...)
	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out = append(out, '"')
	}
	out = bytes.TrimRight(out, " \t\r\n")
	switch {
	case bytes.HasSuffix(out, []byte(",")):
		out = out[:len(out)-1]
	case bytes.HasSuffix(out, []byte(":")):
		out = append(out, "null"...)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return out, true
}
