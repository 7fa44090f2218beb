package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDArrayScan(t *testing.T) {
	t.Parallel()

	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	t.Run("two elements", func(t *testing.T) {
		var arr uuidArray
		require.NoError(t, arr.Scan("{"+a.String()+","+b.String()+"}"))
		assert.Equal(t, uuidArray{a, b}, arr)
	})

	t.Run("bytes input", func(t *testing.T) {
		var arr uuidArray
		require.NoError(t, arr.Scan([]byte("{"+a.String()+"}")))
		assert.Equal(t, uuidArray{a}, arr)
	})

	t.Run("empty array", func(t *testing.T) {
		var arr uuidArray
		require.NoError(t, arr.Scan("{}"))
		assert.Empty(t, arr)
		assert.NotNil(t, arr)
	})

	t.Run("null column", func(t *testing.T) {
		arr := uuidArray{a}
		require.NoError(t, arr.Scan(nil))
		assert.Nil(t, arr)
	})

	t.Run("quoted elements", func(t *testing.T) {
		var arr uuidArray
		require.NoError(t, arr.Scan(`{"`+a.String()+`"}`))
		assert.Equal(t, uuidArray{a}, arr)
	})

	t.Run("malformed literal", func(t *testing.T) {
		var arr uuidArray
		assert.Error(t, arr.Scan("not-an-array"))
	})

	t.Run("bad element", func(t *testing.T) {
		var arr uuidArray
		assert.Error(t, arr.Scan("{zzz}"))
	})

	t.Run("unsupported type", func(t *testing.T) {
		var arr uuidArray
		assert.Error(t, arr.Scan(42))
	})
}

func TestUUIDArrayValue(t *testing.T) {
	t.Parallel()

	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	t.Run("nil becomes empty array", func(t *testing.T) {
		v, err := uuidArray(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, "{}", v)
	})

	t.Run("round trip", func(t *testing.T) {
		v, err := uuidArray{a, b}.Value()
		require.NoError(t, err)

		var arr uuidArray
		require.NoError(t, arr.Scan(v))
		assert.Equal(t, uuidArray{a, b}, arr)
	})
}
