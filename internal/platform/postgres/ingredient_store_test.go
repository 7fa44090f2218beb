package postgres

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoilsapp/spoils-api/internal/domain"
)

func TestMarshalAttributesEmptyMapIsEmptyObject(t *testing.T) {
	t.Parallel()

	// Freshly resolved ingredients carry no attributes; the column is
	// NOT NULL, so the stored value must be an empty JSON object rather
	// than a nil slice the driver would send as SQL NULL.
	ing, err := domain.NewIngredient("water", false)
	require.NoError(t, err)
	require.Empty(t, ing.Attributes)

	out, err := marshalAttributes(ing.Attributes)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.JSONEq(t, `{}`, string(out))

	out, err = marshalAttributes(map[domain.AttributeCategory]json.RawMessage{})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.JSONEq(t, `{}`, string(out))
}

func TestMarshalAttributesRoundTrip(t *testing.T) {
	t.Parallel()

	attrs := map[domain.AttributeCategory]json.RawMessage{
		domain.AttrVitamins: json.RawMessage(`{"b3":"niacin"}`),
	}

	out, err := marshalAttributes(attrs)
	require.NoError(t, err)

	var decoded map[domain.AttributeCategory]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `{"b3":"niacin"}`, string(decoded[domain.AttrVitamins]))
}
