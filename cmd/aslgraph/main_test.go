package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/adapters/file"
	"github.com/aretw0/aslgraph/pkg/adapters/memory"
	"github.com/aretw0/aslgraph/pkg/adapters/redis"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/ports"
)

const goodDoc = `
entry: Ship
comment: shipping
fragment:
  startAt: pack
  states:
    pack:
      state: {Type: Task, Resource: "arn:aws:lambda:pack"}
`

const badDoc = `
fragment:
  state: {Type: Task, Resource: "arn:aws:lambda:pack", Next: Gone}
`

// execute runs the CLI with fresh flag values and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileCommand(t *testing.T) {
	path := writeDoc(t, "ship.yaml", goodDoc)

	out, err := execute(t, "", "compile", path)
	require.NoError(t, err)
	var sm asl.StateMachine
	require.NoError(t, json.Unmarshal([]byte(out), &sm))
	assert.Equal(t, "Ship", sm.StartAt)
	assert.Equal(t, "shipping", sm.Comment)
	assert.True(t, sm.States["Ship"].(*asl.Task).End)

	out, err = execute(t, "", "compile", "--format", "yaml", "--entry", "Dispatch", path)
	require.NoError(t, err)
	assert.Contains(t, out, "StartAt: Dispatch")

	out, err = execute(t, goodDoc, "compile", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"StartAt": "Ship"`)
}

func TestCompileCommand_Errors(t *testing.T) {
	bad := writeDoc(t, "bad.yaml", badDoc)

	_, err := execute(t, "", "compile", bad)
	assert.ErrorContains(t, err, `missing state "Gone"`)

	out, err := execute(t, "", "compile", "--no-validate", bad)
	require.NoError(t, err)
	assert.Contains(t, out, `"Next": "Gone"`)

	_, err = execute(t, "", "compile", "--format", "toml", bad)
	assert.ErrorContains(t, err, `unknown format "toml"`)

	_, err = execute(t, "", "compile", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read document")

	_, err = execute(t, "", "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestValidateCommand(t *testing.T) {
	good := writeDoc(t, "good.yaml", goodDoc)
	bad := writeDoc(t, "bad.yaml", badDoc)

	out, err := execute(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ valid")

	out, err = execute(t, "", "validate", good, bad)
	assert.EqualError(t, err, "1 of 2 documents are invalid")
	assert.Contains(t, out, "✗ invalid")
	assert.Contains(t, out, `state "Main": next transition to missing state "Gone"`)
}

func TestGraphCommand(t *testing.T) {
	bad := writeDoc(t, "bad.yaml", badDoc)

	out, err := execute(t, "", "graph", bad)
	require.NoError(t, err, "invalid machines are still drawn")
	assert.Contains(t, out, "## Problems")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "class Main invalid;")

	out, err = execute(t, "", "graph", "--mermaid", bad)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "Main --> Gone")
	assert.NotContains(t, out, "## Problems")

	_, err = execute(t, "fragment: [", "graph", "-")
	assert.ErrorContains(t, err, "failed to parse document")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "aslgraph version "))
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	_, err := execute(t, "", "mcp", "--transport", "carrier-pigeon")
	assert.ErrorContains(t, err, `unknown transport "carrier-pigeon"`)
}

func TestEnvOr(t *testing.T) {
	t.Setenv("ASLGRAPH_TEST_VALUE", "from-env")
	assert.Equal(t, "from-env", envOr("ASLGRAPH_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", envOr("ASLGRAPH_TEST_UNSET", "fallback"))

	t.Setenv("ASLGRAPH_TEST_TTL", "90s")
	assert.Equal(t, "1m30s", envDuration("ASLGRAPH_TEST_TTL", 0).String())
	assert.Zero(t, envDuration("ASLGRAPH_TEST_UNSET", 0))
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		resetFlags(rootCmd)
		store, locker, closeStore, err := openStore(serveCmd)
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &memory.Store{}, store)
		assert.IsType(t, &memory.Locker{}, locker)
	})

	t.Run("directory", func(t *testing.T) {
		resetFlags(rootCmd)
		require.NoError(t, serveCmd.Flags().Set("store-dir", t.TempDir()))
		store, _, closeStore, err := openStore(serveCmd)
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &file.Store{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		resetFlags(rootCmd)
		require.NoError(t, serveCmd.Flags().Set("redis-addr", mr.Addr()))
		require.NoError(t, serveCmd.Flags().Set("redis-prefix", "test:"))
		require.NoError(t, serveCmd.Flags().Set("ttl", "1h"))
		serveCmd.SetContext(context.Background())

		store, locker, closeStore, err := openStore(serveCmd)
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &redis.Locker{}, locker)

		ctx := context.Background()
		require.NoError(t, store.Save(ctx, "m", &ports.Artifact{Name: "m"}))
		assert.True(t, mr.Exists("test:m"))
		assert.Equal(t, time.Hour, mr.TTL("test:m"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		resetFlags(rootCmd)
		require.NoError(t, serveCmd.Flags().Set("redis-addr", addr))
		serveCmd.SetContext(context.Background())

		_, _, _, err := openStore(serveCmd)
		assert.ErrorContains(t, err, "connect to redis")
	})
}
