package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Precedence(t *testing.T) {
	const envName = "CODEGEN_TEST_RESOLVE"

	t.Run("explicit wins over env", func(t *testing.T) {
		t.Setenv(envName, "Y")
		assert.Equal(t, "X", Resolve("X", envName, "Z"))
	})

	t.Run("env wins over default", func(t *testing.T) {
		t.Setenv(envName, "Y")
		assert.Equal(t, "Y", Resolve("", envName, "Z"))
	})

	t.Run("default when nothing set", func(t *testing.T) {
		t.Setenv(envName, "")
		assert.Equal(t, "Z", Resolve("", envName, "Z"))
	})

	t.Run("empty env name skips lookup", func(t *testing.T) {
		assert.Equal(t, "Z", Resolve("", "", "Z"))
	})
}

func TestResolveRequired(t *testing.T) {
	const envName = "CODEGEN_TEST_REQUIRED"

	t.Setenv(envName, "")
	v, ok := ResolveRequired("", envName, "")
	assert.False(t, ok)
	assert.Empty(t, v)

	v, ok = ResolveRequired("", envName, "from-file")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	t.Setenv(envName, "from-env")
	v, ok = ResolveRequired("", envName, "from-file")
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)
}

func TestCanonicalizeLocalBaseURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://localhost:1234", "http://localhost:1234/v1"},
		{"http://localhost:1234/", "http://localhost:1234/v1"},
		{"http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"http://localhost:11434/v1/", "http://localhost:11434/v1/"},
		{"http://127.0.0.1:8000", "http://127.0.0.1:8000/v1"},
		{"http://envhost:11434", "http://envhost:11434/v1"},
		{"http://gpu-box:11434", "http://gpu-box:11434/v1"},
		{"http://customhost:8080/api/v1", "http://customhost:8080/api/v1"},
		{"http://localhost:8080/openai/v1/chat", "http://localhost:8080/openai/v1/chat"},
		{"https://api.example.com/custom", "https://api.example.com/custom"},
		{"localhost:1234", "localhost:1234/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalizeLocalBaseURL(tt.input))
		})
	}
}

func TestJoinEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", JoinEndpoint("http://localhost:1234/v1", "/chat/completions"))
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", JoinEndpoint("http://localhost:1234/v1/", "chat/completions"))
	assert.Equal(t, "http://localhost:1234/v1/models", JoinEndpoint("http://localhost:1234/v1//", "//models"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, "", FirstNonEmpty())
}
