package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
)

// isolateEnv は外部の環境変数と設定ファイルの影響を受けないようにする
func isolateEnv(t *testing.T) []string {
	t.Helper()
	for _, name := range []string{
		config.EnvAnthropicAPIKey,
		config.EnvOpenAIAPIKey,
		config.EnvDeepSeekAPIKey,
		config.EnvLocalAPIBase,
		config.EnvLocalModel,
		config.EnvLocalAPIKey,
		"CODEGEN_CONFIG",
	} {
		t.Setenv(name, "")
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	return []string{"--config", missing, "--env-file", "", "--log-level", "error"}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func newLocalServer(t *testing.T, content string, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerate_LocalEndToEnd(t *testing.T) {
	base := isolateEnv(t)
	var hits int32
	server := newLocalServer(t, "Here you go:\n```python\nprint(1)\n```", &hits)

	args := append(base, "generate", "print one", "--service", "local", "--local-url", server.URL, "--local-model", "test-model")
	code, stdout, stderr := runCLI(t, "", args...)

	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Contains(t, stdout, "Using local-test-model service")
	assert.Contains(t, stdout, "Generating python code for prompt: 'print one'")
	assert.Contains(t, stdout, "--- Generated Code ---\nprint(1)\n--- End of Code ---")
}

func TestGenerate_Quiet(t *testing.T) {
	base := isolateEnv(t)
	var hits int32
	server := newLocalServer(t, "```go\nfmt.Println(1)\n```", &hits)

	args := append(base, "generate", "print one", "--service", "local", "--local-url", server.URL, "--language", "go", "-q")
	code, stdout, stderr := runCLI(t, "", args...)

	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "fmt.Println(1)\n", stdout)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	base := isolateEnv(t)

	code, stdout, stderr := runCLI(t, "", append(base, "generate", "p", "--service", "claude")...)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Configuration Error:")
	assert.Contains(t, stderr, "Hint: Set the ANTHROPIC_API_KEY environment variable or use the --api-key option.")
}

func TestGenerate_UnknownService(t *testing.T) {
	base := isolateEnv(t)

	code, _, stderr := runCLI(t, "", append(base, "generate", "p", "--service", "gemini")...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Configuration Error:")
	assert.Contains(t, stderr, "unknown LLM service")
}

func TestGenerate_LocalConnectionError(t *testing.T) {
	base := isolateEnv(t)
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	code, _, stderr := runCLI(t, "", append(base, "generate", "p", "--service", "local", "--local-url", url)...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "API Error:")
	assert.Contains(t, stderr, "LOCAL_LLM_API_BASE")
}

func TestGenerate_RequiresPrompt(t *testing.T) {
	base := isolateEnv(t)

	code, _, stderr := runCLI(t, "", append(base, "generate")...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
}

func TestGenerate_ConfigFileProvider(t *testing.T) {
	isolateEnv(t)
	var hits int32
	server := newLocalServer(t, "```rust\nfn main() {}\n```", &hits)

	path := filepath.Join(t.TempDir(), "codegen.yaml")
	yaml := "provider: local\nlanguage: rust\nlocal:\n  base_url: " + server.URL + "\n  model: file-model\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	code, stdout, stderr := runCLI(t, "", "--config", path, "--env-file", "", "generate", "p")

	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Using local-file-model service")
	assert.Contains(t, stdout, "Generating rust code")
	assert.Contains(t, stdout, "fn main() {}")
}

func TestBackendsCmd(t *testing.T) {
	base := isolateEnv(t)

	code, stdout, _ := runCLI(t, "", append(base, "backends")...)

	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "ANTHROPIC_API_KEY")
	assert.Contains(t, stdout, "gpt-4o-mini")
	assert.Contains(t, stdout, "deepseek-chat")
	assert.Contains(t, stdout, "local-model")
	assert.Contains(t, stdout, "Usage: codegen generate")
}

func TestExtractCmd(t *testing.T) {
	base := isolateEnv(t)
	raw := "text\n```python\nprint(1)\n```\nmore\n```go\nfmt.Println(2)\n```"

	t.Run("single", func(t *testing.T) {
		code, stdout, _ := runCLI(t, raw, append(base, "extract", "--language", "go")...)
		require.Equal(t, 0, code)
		assert.Equal(t, "fmt.Println(2)\n", stdout)
	})

	t.Run("all blocks", func(t *testing.T) {
		code, stdout, _ := runCLI(t, raw, append(base, "extract", "--all-blocks")...)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "--- Block 1: python ---\nprint(1)")
		assert.Contains(t, stdout, "--- Block 2: go ---\nfmt.Println(2)")
	})

	t.Run("no blocks", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "plain", append(base, "extract", "--all-blocks")...)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "No fenced code blocks found")
	})
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CODEGEN_CONFIG", "")
	assert.Equal(t, "./codegen.yaml", resolveConfigPath(""))

	t.Setenv("CODEGEN_CONFIG", "/etc/codegen.yaml")
	assert.Equal(t, "/etc/codegen.yaml", resolveConfigPath(""))
	assert.Equal(t, "x.yaml", resolveConfigPath("x.yaml"))
}
