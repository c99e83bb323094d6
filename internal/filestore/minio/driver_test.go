package minio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/filestore"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *filestore.Config
	}{
		{name: "nil config", cfg: nil},
		{name: "no endpoint", cfg: &filestore.Config{}},
		{name: "other provider", cfg: &filestore.Config{Provider: "gcs", Endpoint: "localhost:9000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}
