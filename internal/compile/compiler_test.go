package compile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/confpress/confpress/internal/config"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"docpress v1.2.3 linux/amd64", "1.2.3"},
		{"version 0.15.2", "0.15.2"},
		{"docpress version v2.0.0-rc1+build.7", "2.0.0"},
		{"no version here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseVersion(tt.output), "output %q", tt.output)
	}
}

func TestCompile_MissingBinary(t *testing.T) {
	c := NewBinaryCompiler(config.CompilerConfig{Binary: "definitely-not-a-real-compiler-binary"})
	err := c.Compile(context.Background(), Invocation{
		ContentDir: t.TempDir(),
		OutputDir:  t.TempDir(),
		BasePath:   "/",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCompilerNotFound))
}

func TestDetectVersion_MissingBinary(t *testing.T) {
	require.Empty(t, DetectVersion(context.Background(), "definitely-not-a-real-compiler-binary"))
}
