package sessionware

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExtractors(t *testing.T) {
	extractors := GetExtractors("header:Authorization,query:jwt,cookie:token", "Bearer")
	assert.Len(t, extractors, 3)

	extractors = GetExtractors("header:Authorization,bogus", "Bearer")
	assert.Len(t, extractors, 1, "malformed lookup entries are skipped")
}

func TestFromHeader(t *testing.T) {
	t.Run("Strips the auth scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer abc.def.ghi").Maybe()
		ctx.HeadersM["Authorization"] = "Bearer abc.def.ghi"

		raw, err := fromHeader("Authorization", "Bearer")(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", raw)
	})

	t.Run("Rejects a wrong scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Basic abc").Maybe()
		ctx.HeadersM["Authorization"] = "Basic abc"

		_, err := fromHeader("Authorization", "Bearer")(ctx)
		assert.ErrorIs(t, err, ErrCredentialMissing)
	})

	t.Run("Empty scheme takes the bare value", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "x-refresh-token", "").Return(" raw-secret ").Maybe()
		ctx.HeadersM["x-refresh-token"] = " raw-secret "

		raw, err := fromHeader("x-refresh-token", "")(ctx)
		require.NoError(t, err)
		assert.Equal(t, "raw-secret", raw)
	})
}

func TestGetDefaultConfigRequiresEngine(t *testing.T) {
	require.Panics(t, func() {
		GetDefaultConfig(Config{})
	})
}
