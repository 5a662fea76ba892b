package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWith_FieldsReachEveryBackend(t *testing.T) {
	ctx := ContextWith(context.Background(), "request_id", "req-1")
	ctx = ContextWith(ctx, "user_id", "u-1")

	for _, format := range []string{FormatJSON, FormatZap} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := New(format, "debug", &buf)
			require.NoError(t, err)

			log.Info(ctx, "hello", "k", "v")
			if z, ok := log.(*ZapLogger); ok {
				_ = z.Sync()
			}

			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
			assert.Equal(t, "v", rec["k"])
			assert.Equal(t, "req-1", rec["request_id"])
			assert.Equal(t, "u-1", rec["user_id"])
		})
	}
}

func TestContextWith_NoArgsKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ContextWith(ctx))
	assert.Nil(t, fieldsFromContext(ctx))
}
