package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/config"
	"adaptivealerting/aad/internal/services/auth"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

const planYAML = `
metrics:
  - tags: {role: web}
    sample: [10, 20, 30]
  - tags: {role: api}
    sample: [1, 2, 3, 4]
    strategy: quartile
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

func execPlan(t *testing.T, baseURL string, args ...string) (stdout, stderr string, ctx context.Context, err error) {
	t.Helper()
	env := &cmdutil.Env{
		Settings:     config.Settings{ModelServiceURL: baseURL, ModelServiceUser: "aa-plan"},
		Logger:       zap.NewNop(),
		Store:        auth.NewMockStore(),
		PollInterval: 10 * time.Millisecond,
	}
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetContext(cmdutil.WithEnv(context.Background(), env))
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	executed, err := cmd.ExecuteC()
	ctx = context.Background()
	if executed != nil {
		ctx = executed.Context()
	}
	return outBuf.String(), errBuf.String(), ctx, err
}

func TestSync_DryRun(t *testing.T) {
	path := writePlan(t, planYAML)

	stdout, _, ctx, err := execPlan(t, "", "sync", path, "--dry-run")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	for _, want := range []string{"role=web", "planned", "[-10, 50]", "0 created, 0 updated, 2 planned, 0 failed"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}

	meta := auditlog.MetadataFromContext(ctx)
	if meta.ResourceType != auditlog.ResourcePlan || meta.ResourceName != path {
		t.Errorf("unexpected audit metadata: %+v", meta)
	}
}

func TestSync_CreatesAgainstService(t *testing.T) {
	var created atomic.Int32
	var mappings atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/detectorMappings/findMatchingByTags", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"groupedDetectorsBySearchIndex":{}}`)
	})
	mux.HandleFunc("POST /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		n := created.Add(1)
		io.WriteString(w, uuidFor(n))
	})
	mux.HandleFunc("GET /api/v2/detectors/findByUuid", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"uuid":"`+r.URL.Query().Get("uuid")+`","type":"constant-detector","enabled":true}`)
	})
	mux.HandleFunc("POST /api/detectorMappings", func(w http.ResponseWriter, r *http.Request) {
		mappings.Add(1)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	stdout, _, _, err := execPlan(t, srv.URL, "sync", writePlan(t, planYAML), "-o", "json")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	var results []syncResultJSON
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	var actions []string
	for _, r := range results {
		actions = append(actions, string(r.Action))
		if r.UUID == "" {
			t.Errorf("created result has no uuid: %+v", r)
		}
	}
	if diff := cmp.Diff([]string{"created", "created"}, actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if created.Load() != 2 || mappings.Load() != 2 {
		t.Errorf("expected 2 creates and 2 mappings, got %d and %d", created.Load(), mappings.Load())
	}
}

func TestSync_UpdatesConstantDetectorBesideOtherTypes(t *testing.T) {
	const (
		ewmaUUID     = "00000000-0000-4000-8000-0000000000e1"
		constantUUID = "00000000-0000-4000-8000-0000000000c1"
	)
	var created atomic.Int32
	var puts []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/detectorMappings/findMatchingByTags", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"groupedDetectorsBySearchIndex":{"0":[{"uuid":"`+ewmaUUID+`"},{"uuid":"`+constantUUID+`"}]}}`)
	})
	mux.HandleFunc("GET /api/v2/detectors/findByUuid", func(w http.ResponseWriter, r *http.Request) {
		switch id := r.URL.Query().Get("uuid"); id {
		case ewmaUUID:
			io.WriteString(w, `{"uuid":"`+id+`","type":"ewma-detector","detectorConfig":{"hyperparams":{"alpha":0.2}},"enabled":true}`)
		case constantUUID:
			io.WriteString(w, `{"uuid":"`+id+`","type":"constant-detector","detectorConfig":{"hyperparams":{"strategy":"sigma"},"params":{"type":"TWO_TAILED","thresholds":{"upperWeak":1,"lowerWeak":0,"upperStrong":2,"lowerStrong":-1}}},"enabled":true}`)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
	mux.HandleFunc("PUT /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		puts = append(puts, r.URL.Query().Get("uuid"))
		mu.Unlock()
	})
	mux.HandleFunc("POST /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		created.Add(1)
		http.Error(w, "unexpected create", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	single := "metrics:\n  - tags: {role: web}\n    sample: [10, 20, 30]\n"
	stdout, _, _, err := execPlan(t, srv.URL, "sync", writePlan(t, single), "-o", "json")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	var results []syncResultJSON
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(results) != 1 || results[0].Action != "updated" || results[0].UUID != constantUUID {
		t.Fatalf("unexpected results: %+v", results)
	}
	if diff := cmp.Diff([]string{constantUUID}, puts); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
	if created.Load() != 0 {
		t.Errorf("no detector should be created, got %d", created.Load())
	}
}

func TestSync_ReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	stdout, stderr, _, err := execPlan(t, srv.URL, "sync", writePlan(t, planYAML))
	if err == nil || !strings.Contains(err.Error(), "2 of 2 metrics failed") {
		t.Fatalf("expected failure summary error, got %v", err)
	}
	if !strings.Contains(stdout, "0 created, 0 updated, 0 planned, 2 failed") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
	if !strings.Contains(stderr, "role=api") {
		t.Errorf("expected per-metric error on stderr, got:\n%s", stderr)
	}
}

func TestSync_InvalidPlan(t *testing.T) {
	_, _, _, err := execPlan(t, "", "sync", writePlan(t, "metrics: []\n"), "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "no metrics") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSync_InvalidConcurrency(t *testing.T) {
	_, _, _, err := execPlan(t, "", "sync", writePlan(t, planYAML), "--concurrency", "0")
	if err == nil || !strings.Contains(err.Error(), "--concurrency") {
		t.Errorf("expected concurrency error, got %v", err)
	}
}

func uuidFor(n int32) string {
	return []string{
		"00000000-0000-4000-8000-000000000001",
		"00000000-0000-4000-8000-000000000002",
	}[n-1]
}
