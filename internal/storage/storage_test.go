package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"docportal/internal/config"
)

func TestVersionKey(t *testing.T) {
	assert.Equal(t, "documents/42/abc.pdf", VersionKey(42, "abc.pdf"))
}

func TestNewMinIO_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		msg  string
	}{
		{"missing endpoint", config.MinIOConfig{}, "minio endpoint is required"},
		{"missing credentials", config.MinIOConfig{Endpoint: "localhost:9000"}, "minio credentials are required"},
		{"missing bucket", config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, "minio bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(ctx, tt.cfg)
			assert.Nil(t, s)
			assert.EqualError(t, err, tt.msg)
		})
	}
}
