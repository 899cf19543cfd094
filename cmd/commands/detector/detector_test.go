package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/actionstore"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/config"
	"adaptivealerting/aad/internal/database"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/services/auth"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
)

const (
	testUser = "aa-detector-build"
	newUUID  = "4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11"
)

// fakeService is a minimal in-memory model service.
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	detectors map[string]map[string]any
	mappings  [][]byte
	deleted   []string
	toggles   []string
	updates   []map[string]any
	matches   []string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{t: t, detectors: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/detectors/findByUuid", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		d, ok := f.detectors[r.URL.Query().Get("uuid")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, d)
	})
	mux.HandleFunc("POST /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		body := decode(t, r.Body)
		body["uuid"] = newUUID
		f.mu.Lock()
		f.detectors[newUUID] = body
		f.mu.Unlock()
		io.WriteString(w, newUUID)
	})
	mux.HandleFunc("PUT /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		body := decode(t, r.Body)
		id := r.URL.Query().Get("uuid")
		body["uuid"] = id
		f.mu.Lock()
		f.updates = append(f.updates, body)
		f.detectors[id] = body
		f.mu.Unlock()
	})
	mux.HandleFunc("DELETE /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, "detector:"+r.URL.Query().Get("uuid"))
		f.mu.Unlock()
	})
	toggle := func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.toggles = append(f.toggles, r.URL.Query().Get("uuid")+"="+r.URL.Query().Get("enabled"))
		f.mu.Unlock()
	}
	mux.HandleFunc("GET /api/v2/detectors/toggleDetector", toggle)
	mux.HandleFunc("POST /api/v2/detectors/toggleDetector", toggle)
	mux.HandleFunc("POST /api/detectorMappings", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.mappings = append(f.mappings, body)
		f.mu.Unlock()
	})
	mux.HandleFunc("POST /api/detectorMappings/findMatchingByTags", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		matched := make([]map[string]string, 0, len(f.matches))
		for _, id := range f.matches {
			matched = append(matched, map[string]string{"uuid": id})
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"groupedDetectorsBySearchIndex": map[string]any{"0": matched}})
	})
	mux.HandleFunc("POST /api/detectorMappings/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{
			"id":       "mapping-1",
			"detector": map[string]string{"uuid": newUUID},
			"expression": map[string]any{
				"operator": "AND",
				"operands": []map[string]any{{"field": map[string]string{"key": "role", "value": "web"}}},
			},
			"enabled": true,
		}})
	})
	mux.HandleFunc("DELETE /api/detectorMappings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, "mapping:"+r.URL.Query().Get("id"))
		f.mu.Unlock()
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) put(id string, d map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d["uuid"] = id
	f.detectors[id] = d
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func decode(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		t.Errorf("bad request body: %v", err)
	}
	return m
}

func constantDetector(weakUpper float64) map[string]any {
	return map[string]any{
		"type": "constant-detector",
		"detectorConfig": map[string]any{
			"hyperparams": map[string]any{"strategy": "sigma", "weak_multiplier": 3.0, "strong_multiplier": 5.0},
			"params": map[string]any{
				"type": "TWO_TAILED",
				"thresholds": map[string]any{
					"upperWeak": weakUpper, "lowerWeak": 0.0, "upperStrong": weakUpper + 10, "lowerStrong": -10.0,
				},
			},
		},
		"enabled": true,
		"trusted": true,
	}
}

func ewmaDetector() map[string]any {
	return map[string]any{
		"type":           "ewma-detector",
		"detectorConfig": map[string]any{"hyperparams": map[string]any{"alpha": 0.2}},
		"enabled":        true,
	}
}

// execDetector runs the detector command against baseURL and returns what was
// written to stdout and stderr.
func execDetector(t *testing.T, baseURL string, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut, _, err := execDetectorCtx(t, baseURL, stdin, args...)
	return out, errOut, err
}

// execDetectorCtx is execDetector that also returns the context the executed
// subcommand ended with.
func execDetectorCtx(t *testing.T, baseURL string, stdin string, args ...string) (string, string, context.Context, error) {
	t.Helper()
	env := &cmdutil.Env{
		Settings:     config.Settings{ModelServiceURL: baseURL, ModelServiceUser: testUser},
		Logger:       zap.NewNop(),
		Store:        auth.NewMockStore(),
		PollInterval: 10 * time.Millisecond,
	}

	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetContext(cmdutil.WithEnv(context.Background(), env))
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	executed, err := cmd.ExecuteC()
	ctx := context.Background()
	if executed != nil {
		ctx = executed.Context()
	}
	return outBuf.String(), errBuf.String(), ctx, err
}

// --- build ---

func TestBuild_Sigma(t *testing.T) {
	stdout, _, err := execDetector(t, "", "", "build", "--sample", "10,20,30")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{"constant-detector", "Weak upper:", "50", "Strong upper:", "70", "-30"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestBuild_JSONFromStdin(t *testing.T) {
	stdout, _, err := execDetector(t, "", "# p99 latency\n1 2\n3,4\n",
		"build", "--strategy", "quartile", "--weak", "1.5", "--strong", "3", "--sample-file", "-", "-o", "json")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var d domain.Detector
	if err := json.Unmarshal([]byte(stdout), &d); err != nil {
		t.Fatalf("output is not a detector: %v\n%s", err, stdout)
	}
	cfg, ok := d.ConstantThreshold()
	if !ok {
		t.Fatalf("expected constant-threshold config, got %+v", d)
	}
	want := domain.ConstantThresholdHyperparams{Strategy: domain.StrategyQuartile, WeakMultiplier: 1.5, StrongMultiplier: 3}
	if diff := cmp.Diff(want, cfg.Hyperparams); diff != "" {
		t.Errorf("hyperparams mismatch (-want +got):\n%s", diff)
	}
	if d.UUID != "" {
		t.Errorf("built detector should have no uuid, got %q", d.UUID)
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantMsg string
	}{
		{"no sample", []string{"build"}, "", "sample is required"},
		{"both sources", []string{"build", "--sample", "1,2", "--sample-file", "-"}, "", "not both"},
		{"unknown strategy", []string{"build", "--strategy", "ewma", "--sample", "1,2"}, "", "unknown build strategy"},
		{"single value sigma", []string{"build", "--sample", "5"}, "", "insufficient"},
		{"bad number", []string{"build", "--sample-file", "-"}, "1\n2\nabc\n", "line 3"},
		{"empty stdin", []string{"build", "--sample-file", "-"}, "# nothing\n", "sample is empty"},
		{"bad output", []string{"build", "--sample", "1,2", "-o", "yaml"}, "", "unsupported output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execDetector(t, "", tt.stdin, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

// --- create ---

func TestCreate_WithTagsMapsDetector(t *testing.T) {
	fake := newFakeService(t)

	stdout, _, ctx, err := execDetectorCtx(t, fake.srv.URL, "",
		"create", "--sample", "10,20,30", "--tag", "role=web", "--tag", "what=elb_2xx")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(stdout, "Detector "+newUUID+" created.") {
		t.Errorf("expected confirmation, got:\n%s", stdout)
	}

	stored := fake.detectors[newUUID]
	if stored["createdBy"] != testUser {
		t.Errorf("createdBy = %v, want %q", stored["createdBy"], testUser)
	}
	if len(fake.mappings) != 1 {
		t.Fatalf("expected 1 mapping request, got %d", len(fake.mappings))
	}
	m, err := domain.UnmarshalModelService(fake.mappings[0])
	if err != nil {
		t.Fatalf("mapping body: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"role": "web", "what": "elb_2xx"}, m.Tags); diff != "" {
		t.Errorf("mapping tags mismatch (-want +got):\n%s", diff)
	}
	if m.DetectorUUID != newUUID {
		t.Errorf("mapping detector = %q", m.DetectorUUID)
	}

	meta := auditlog.MetadataFromContext(ctx)
	want := auditlog.Metadata{
		ModelService: fake.srv.URL,
		ResourceType: auditlog.ResourceDetector,
		ResourceID:   newUUID,
		ResourceName: "role=web,what=elb_2xx",
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("audit metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_DisabledWithoutTags(t *testing.T) {
	fake := newFakeService(t)

	_, _, err := execDetector(t, fake.srv.URL, "", "create", "--sample", "1,2,3", "--disabled", "-o", "json")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if enabled := fake.detectors[newUUID]["enabled"]; enabled != false {
		t.Errorf("enabled = %v, want false", enabled)
	}
	if len(fake.mappings) != 0 {
		t.Errorf("expected no mapping requests, got %d", len(fake.mappings))
	}
}

func TestCreate_WaitTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/detectors", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, newUUID)
	})
	mux.HandleFunc("GET /api/v2/detectors/findByUuid", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not yet", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	repo := useTempDatabase(t)

	_, stderr, err := execDetector(t, srv.URL, "", "create", "--sample", "1,2", "--tag", "role=web", "--wait-timeout", "50ms")
	if !errors.Is(err, domain.ErrCreateTimeout) {
		t.Fatalf("expected create timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), newUUID) {
		t.Errorf("error should name the created uuid: %v", err)
	}
	if !strings.Contains(stderr, "detector pending --resume") {
		t.Errorf("expected resume hint on stderr, got:\n%s", stderr)
	}

	pending, err := repo().ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 tracked create, got %d", len(pending))
	}
	want := actionstore.PendingCreate{
		DetectorUUID: newUUID,
		ModelService: srv.URL,
		User:         testUser,
		Tags:         map[string]string{"role": "web"},
		Status:       actionstore.StatusPending,
	}
	if diff := cmp.Diff(want, pending[0], cmpopts.IgnoreFields(actionstore.PendingCreate{}, "ID", "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("tracked create mismatch (-want +got):\n%s", diff)
	}
}

// useTempDatabase points the local database at a temp file and returns an
// opener for it.
func useTempDatabase(t *testing.T) func() *actionstore.SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aad.db")
	database.SetPath(path)
	t.Cleanup(database.ResetPath)
	return func() *actionstore.SQLiteRepository {
		repo, err := actionstore.OpenAt(path)
		if err != nil {
			t.Fatalf("OpenAt: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	}
}

// --- pending ---

func TestPending_ListAndResume(t *testing.T) {
	fake := newFakeService(t)
	repo := useTempDatabase(t)

	record := &actionstore.PendingCreate{DetectorUUID: newUUID, ModelService: fake.srv.URL, Tags: map[string]string{"role": "web"}}
	if err := repo().Save(record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stdout, _, listCtx, err := execDetectorCtx(t, fake.srv.URL, "", "pending")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(stdout, newUUID) || !strings.Contains(stdout, "role=web") {
		t.Errorf("unexpected listing:\n%s", stdout)
	}
	if auditlog.MetadataFromContext(listCtx).Record {
		t.Error("listing pending creates should not be audited")
	}

	fake.put(newUUID, constantDetector(110))
	stdout, _, ctx, err := execDetectorCtx(t, fake.srv.URL, "", "pending", "--resume")
	if err != nil {
		t.Fatalf("pending --resume: %v", err)
	}
	if !strings.Contains(stdout, "Detector "+newUUID+" confirmed.") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if len(fake.mappings) != 1 {
		t.Errorf("expected the mapping to be saved, got %d mapping requests", len(fake.mappings))
	}
	if meta := auditlog.MetadataFromContext(ctx); meta.ResourceType != auditlog.ResourceDetector || !meta.Record {
		t.Errorf("unexpected audit metadata: %+v", meta)
	}

	got, _ := repo().Get(record.ID)
	if got.Status != actionstore.StatusConfirmed {
		t.Errorf("Status = %q, want %q", got.Status, actionstore.StatusConfirmed)
	}

	stdout, _, err = execDetector(t, fake.srv.URL, "", "pending")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(stdout, "No pending creates.") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestPending_ResumeStillMissing(t *testing.T) {
	fake := newFakeService(t)
	repo := useTempDatabase(t)

	record := &actionstore.PendingCreate{DetectorUUID: newUUID}
	if err := repo().Save(record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, _, err := execDetector(t, fake.srv.URL, "", "pending", "--resume", "--wait-timeout", "30ms")
	if err == nil || !strings.Contains(err.Error(), "1 of 1") {
		t.Fatalf("expected resume failure, got %v", err)
	}

	got, _ := repo().Get(record.ID)
	if got.Status != actionstore.StatusError || !strings.Contains(got.ErrorMessage, newUUID) {
		t.Errorf("unexpected record after failed resume: %+v", got)
	}
}

func TestPending_Prune(t *testing.T) {
	repo := useTempDatabase(t)
	record := &actionstore.PendingCreate{DetectorUUID: newUUID, Status: actionstore.StatusConfirmed}
	if err := repo().Save(record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stdout, _, ctx, err := execDetectorCtx(t, "", "", "pending", "--prune-older-than", "1w")
	if err != nil {
		t.Fatalf("pending --prune-older-than: %v", err)
	}
	if !strings.Contains(stdout, "Removed 0 settled record(s).") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if !auditlog.MetadataFromContext(ctx).Record {
		t.Error("prune should be audited")
	}

	_, _, _, err = execDetectorCtx(t, "", "", "pending", "--prune-older-than", "-2d")
	if err == nil || !strings.Contains(err.Error(), "--prune-older-than") {
		t.Errorf("expected age error, got %v", err)
	}
}

func TestCreate_IsAudited(t *testing.T) {
	cmd := NewCommand()
	for _, name := range []string{"create", "update", "enable", "disable", "delete"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if !cmdutil.IsAudited(sub) {
			t.Errorf("%s should be audited", name)
		}
	}
	for _, name := range []string{"build", "show", "list"} {
		sub, _, _ := cmd.Find([]string{name})
		if cmdutil.IsAudited(sub) {
			t.Errorf("%s should not be audited", name)
		}
	}
}

// --- show / list ---

func TestShow(t *testing.T) {
	fake := newFakeService(t)
	fake.put(newUUID, constantDetector(110))

	stdout, _, err := execDetector(t, fake.srv.URL, "", "show", newUUID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{newUUID, "Trusted:", "110", "TWO_TAILED"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestShow_OtherDetectorType(t *testing.T) {
	fake := newFakeService(t)
	fake.put(newUUID, ewmaDetector())

	stdout, _, err := execDetector(t, fake.srv.URL, "", "show", newUUID, "-o", "json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	want := map[string]any{"hyperparams": map[string]any{"alpha": 0.2}}
	if diff := cmp.Diff(want, got["detectorConfig"]); diff != "" {
		t.Errorf("detectorConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestShow_NotFound(t *testing.T) {
	fake := newFakeService(t)

	_, _, err := execDetector(t, fake.srv.URL, "", "show", newUUID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	fake := newFakeService(t)
	fake.put("a", constantDetector(110))
	fake.matches = []string{"a", "dangling"}

	stdout, _, err := execDetector(t, fake.srv.URL, "", "list", "--tag", "role=web")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout, "UUID") || !strings.Contains(stdout, "[0, 110]") {
		t.Errorf("unexpected table:\n%s", stdout)
	}
	if strings.Contains(stdout, "dangling") {
		t.Errorf("unresolvable detector should be skipped:\n%s", stdout)
	}
}

func TestList_RequiresTag(t *testing.T) {
	_, _, err := execDetector(t, "http://unused", "", "list")
	if err == nil || !strings.Contains(err.Error(), "--tag") {
		t.Errorf("expected missing tag error, got %v", err)
	}
}

func TestList_Empty(t *testing.T) {
	fake := newFakeService(t)

	stdout, _, err := execDetector(t, fake.srv.URL, "", "list", "--tag", "role=web")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout, "No detectors found.") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

// --- update / toggle / delete ---

func TestUpdate_ReplacesThresholdsKeepsFlags(t *testing.T) {
	fake := newFakeService(t)
	fake.put(newUUID, constantDetector(110))

	_, _, err := execDetector(t, fake.srv.URL, "", "update", newUUID, "--sample", "10,20,30")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(fake.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(fake.updates))
	}

	var d domain.Detector
	raw, _ := json.Marshal(fake.updates[0])
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("update body: %v", err)
	}
	if !d.Trusted || !d.Enabled {
		t.Errorf("update should keep enabled and trusted: %+v", d)
	}
	cfg, _ := d.ConstantThreshold()
	if cfg.Params.Thresholds.WeakUpper != 50 {
		t.Errorf("WeakUpper = %v, want 50", cfg.Params.Thresholds.WeakUpper)
	}
}

func TestUpdate_RejectsOtherTypes(t *testing.T) {
	fake := newFakeService(t)
	fake.put(newUUID, ewmaDetector())

	_, _, err := execDetector(t, fake.srv.URL, "", "update", newUUID, "--sample", "1,2")
	if err == nil || !strings.Contains(err.Error(), "ewma-detector") {
		t.Errorf("expected type error, got %v", err)
	}
	if len(fake.updates) != 0 {
		t.Errorf("no update should be sent")
	}
}

func TestEnableDisable(t *testing.T) {
	fake := newFakeService(t)

	if _, _, err := execDetector(t, fake.srv.URL, "", "enable", newUUID); err != nil {
		t.Fatalf("enable: %v", err)
	}
	stdout, _, err := execDetector(t, fake.srv.URL, "", "disable", newUUID)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if !strings.Contains(stdout, "disabled") {
		t.Errorf("unexpected output: %s", stdout)
	}
	want := []string{newUUID + "=true", newUUID + "=false"}
	if diff := cmp.Diff(want, fake.toggles); diff != "" {
		t.Errorf("toggle requests mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"detector only", nil, []string{"detector:" + newUUID}},
		{"with mappings", []string{"--with-mappings"}, []string{"mapping:mapping-1", "detector:" + newUUID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeService(t)
			args := append([]string{"delete", newUUID}, tt.args...)
			if _, _, err := execDetector(t, fake.srv.URL, "", args...); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if diff := cmp.Diff(tt.want, fake.deleted); diff != "" {
				t.Errorf("deletes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
