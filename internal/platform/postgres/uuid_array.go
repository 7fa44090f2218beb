package postgres

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// uuidArray adapts []uuid.UUID to PostgreSQL's uuid[] text representation.
// The stdlib driver interface exposes arrays only as text, so Scan parses
// the "{a,b,c}" form and Value produces it. UUIDs never need quoting inside
// an array literal.
type uuidArray []uuid.UUID

func (a *uuidArray) Scan(src interface{}) error {
	var text string
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot scan %T into uuid array", src)
	}

	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return fmt.Errorf("malformed uuid array literal: %q", text)
	}

	inner := text[1 : len(text)-1]
	if inner == "" {
		*a = uuidArray{}
		return nil
	}

	parts := strings.Split(inner, ",")
	out := make(uuidArray, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.Trim(strings.TrimSpace(part), `"`))
		if err != nil {
			return fmt.Errorf("parsing uuid array element %q: %w", part, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}

func (a uuidArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	elems := make([]string, len(a))
	for i, id := range a {
		elems[i] = id.String()
	}
	return "{" + strings.Join(elems, ",") + "}", nil
}
