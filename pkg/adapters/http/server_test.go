package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/pkg/adapters/file"
	httpadapter "github.com/aretw0/aslgraph/pkg/adapters/http"
	"github.com/aretw0/aslgraph/pkg/adapters/memory"
	"github.com/aretw0/aslgraph/pkg/adapters/redis"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/metrics"
	"github.com/aretw0/aslgraph/pkg/ports"
)

const flowDoc = `
entry: Greet
fragment:
  sequence:
    - state: {Type: Task, Resource: "arn:aws:lambda:hello"}
    - state: {Type: Succeed}
`

const brokenDoc = `
fragment:
  state: {Type: Task, Resource: "arn:aws:lambda:x", Next: Nowhere}
`

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	h := httpadapter.NewHandler(aslgraph.New(), memory.NewStore())

	rr := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCompileLifecycle(t *testing.T) {
	store := memory.NewStore()
	h := httpadapter.NewHandler(aslgraph.New(), store)

	rr := do(t, h, http.MethodPost, "/compile/greeter", flowDoc)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var artifact ports.Artifact
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &artifact))
	assert.Equal(t, "greeter", artifact.Name)
	assert.Equal(t, "Greet", artifact.Machine.StartAt)
	assert.Equal(t, flowDoc, artifact.Source)

	rr = do(t, h, http.MethodGet, "/machines", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"machines":["greeter"]}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/machines/greeter", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var sm asl.StateMachine
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sm))
	assert.Len(t, sm.States, 2)
	assert.IsType(t, &asl.Task{}, sm.States["Greet"])

	rr = do(t, h, http.MethodGet, "/machines/greeter?format=yaml", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "StartAt: Greet")

	rr = do(t, h, http.MethodGet, "/machines/greeter/graph?focus=Greet", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "graph TD")
	assert.Contains(t, rr.Body.String(), "class Greet focus;")

	rr = do(t, h, http.MethodDelete, "/machines/greeter", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, "/machines/greeter", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `machine \"greeter\" not found`)
}

func TestCompile_Rejections(t *testing.T) {
	store := memory.NewStore()
	h := httpadapter.NewHandler(aslgraph.New(), store, httpadapter.WithMaxBodyBytes(512))

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "invalid machine",
			body:     brokenDoc,
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `"reason":"next transition to missing state \"Nowhere\""`,
		},
		{
			name:     "unparseable document",
			body:     "fragment: [",
			wantCode: http.StatusBadRequest,
			wantBody: "failed to parse document",
		},
		{
			name:     "too large",
			body:     "comment: " + strings.Repeat("x", 1024),
			wantCode: http.StatusRequestEntityTooLarge,
			wantBody: "exceeds 512 bytes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/compile/bad", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names, "rejected documents are never stored")
}

func TestCompile_DryRun(t *testing.T) {
	store := memory.NewStore()
	h := httpadapter.NewHandler(aslgraph.New(), store)

	rr := do(t, h, http.MethodPost, "/compile/preview?dryRun=true", flowDoc)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"StartAt":"Greet"`)

	_, err := store.Load(context.Background(), "preview")
	assert.ErrorIs(t, err, ports.ErrArtifactNotFound)
}

type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("held elsewhere")
}

func TestCompile_Locking(t *testing.T) {
	h := httpadapter.NewHandler(aslgraph.New(), memory.NewStore(), httpadapter.WithLocker(busyLocker{}))
	rr := do(t, h, http.MethodPost, "/compile/greeter", flowDoc)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	locker := memory.NewLocker()
	h = httpadapter.NewHandler(aslgraph.New(), memory.NewStore(), httpadapter.WithLocker(locker))
	rr = do(t, h, http.MethodPost, "/compile/greeter", flowDoc)
	assert.Equal(t, http.StatusCreated, rr.Code)

	// The lock was released after the compile.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlock, err := locker.Lock(ctx, "greeter", time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock(ctx))
}

type failingStore struct{ ports.ArtifactStore }

func (failingStore) Save(context.Context, string, *ports.Artifact) error {
	return errors.New("disk full")
}

func (failingStore) List(context.Context) ([]string, error) {
	return nil, errors.New("disk gone")
}

func TestStoreFailures(t *testing.T) {
	h := httpadapter.NewHandler(aslgraph.New(), failingStore{memory.NewStore()})

	rr := do(t, h, http.MethodPost, "/compile/greeter", flowDoc)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk full", "internal errors are not leaked")

	rr = do(t, h, http.MethodGet, "/machines", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRequestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New()
	m.MustRegister(registry)
	h := httpadapter.NewHandler(aslgraph.New(), memory.NewStore(), httpadapter.WithMetrics(m))

	do(t, h, http.MethodGet, "/machines/a", "")
	do(t, h, http.MethodGet, "/machines/b", "")
	do(t, h, http.MethodGet, "/health", "")

	count, err := testutil.GatherAndCount(registry, "aslgraph_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "requests are grouped by route pattern")
}

func TestCompile_InvalidName(t *testing.T) {
	h := httpadapter.NewHandler(aslgraph.New(), file.New(t.TempDir()))

	rr := do(t, h, http.MethodPost, "/compile/.hidden", flowDoc)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid artifact name")
}

func TestCompile_RedisReservedNames(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })
	h := httpadapter.NewHandler(aslgraph.New(), store,
		httpadapter.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix)))

	for _, name := range []string{"lock:greeter", "index", "greeter"} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		req := httptest.NewRequest(http.MethodPost, "/compile/"+name, strings.NewReader(flowDoc)).WithContext(ctx)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		cancel()
		assert.Equal(t, http.StatusCreated, rr.Code, "%s: %s", name, rr.Body.String())
	}

	rr := do(t, h, http.MethodGet, "/machines", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"machines":["greeter","index","lock:greeter"]}`, rr.Body.String())
}
