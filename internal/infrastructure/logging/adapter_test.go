package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hapkiduki/boxpack/pkg/logger"
)

func TestAdapterKeepsFields(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(logger.MustNew(logger.Config{Level: "info", Output: &buf}))

	ctx := logger.ContextWithRequestID(context.Background(), "req-7")
	a.With("component", "test").WithContext(ctx).Info("hello")

	out := buf.String()
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"request_id":"req-7"`)
	assert.Contains(t, out, `"msg":"hello"`)
}
