package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "registrar/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty context is anonymous", func(t *testing.T) {
		assert.False(t, Authenticated(ctx))
		assert.Equal(t, id.Identity(""), Caller(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("values round trip", func(t *testing.T) {
		caller := id.MustParseIdentity("0x00000000000000000000000000000000000000a1")
		pinned := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		ctx := WithTime(WithRequestID(WithCaller(ctx, caller), "req-1"), pinned)

		assert.True(t, Authenticated(ctx))
		assert.Equal(t, caller, Caller(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, pinned, Now(ctx))
	})
}
