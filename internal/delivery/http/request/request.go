package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/user/equipment-scraper/internal/entity"
)

// ErrInvalidRecord is returned for a body that is not a flat JSON object.
var ErrInvalidRecord = errors.New("record must be a flat JSON object")

// DecodeRecord reads a flat JSON object into a record, keeping the key
// order of the body. Strings, numbers and booleans become text; null
// becomes NULL. Nested objects and arrays are rejected.
func DecodeRecord(r io.Reader) (*entity.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrInvalidRecord
	}

	rec := entity.NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrInvalidRecord
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		switch v := tok.(type) {
		case nil:
			rec.SetNull(key)
		case string:
			rec.Set(key, v)
		case json.Number:
			rec.Set(key, v.String())
		case bool:
			if v {
				rec.Set(key, "true")
			} else {
				rec.Set(key, "false")
			}
		default:
			return nil, fmt.Errorf("%w: field %q has a nested value", ErrInvalidRecord, key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidRecord)
	}
	return rec, nil
}

// IdentityParam splits the comma-separated identity query parameter.
// An empty value selects the default identity fields.
func IdentityParam(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
