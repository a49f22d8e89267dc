package aps_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/revitview/pkg/aps"
)

const (
	testClientID     = "client-id"
	testClientSecret = "client-secret"
	testBucket       = "test-bucket"
)

// fakeAPS emulates the token, OSS, S3 and Model Derivative endpoints.
type fakeAPS struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex

	calls      []string
	tokenCalls int

	tokenStatus  int
	expiresIn    int
	unauthorized int

	bucketExists bool

	signedURLs  int
	partStatus  map[int]int
	parts       map[int][]byte
	uploadKey   string
	completed   bool
	sizeOffset  int64
	detailCalls int

	submitStatus int
	submitted    []string

	manifests     []string
	manifestCalls int
	manifestFail  int
	manifestCode  int
	messages      any
	geometry      bool

	headStatus int
}

func newFakeAPS(t *testing.T) *fakeAPS {
	t.Helper()

	f := &fakeAPS{
		t:            t,
		tokenStatus:  http.StatusOK,
		expiresIn:    3600,
		bucketExists: true,
		signedURLs:   -1,
		partStatus:   map[int]int{},
		parts:        map[int][]byte{},
		uploadKey:    "upload-key-1",
		submitStatus: http.StatusOK,
		manifests:    []string{"success"},
		geometry:     true,
		headStatus:   http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/v2/token", f.token)
	mux.HandleFunc("GET /oss/v2/buckets/{bucket}/details", f.authorized(f.bucketDetails))
	mux.HandleFunc("POST /oss/v2/buckets", f.authorized(f.createBucket))
	mux.HandleFunc("GET /oss/v2/buckets/{bucket}/objects/{object}/signeds3upload", f.authorized(f.beginUpload))
	mux.HandleFunc("POST /oss/v2/buckets/{bucket}/objects/{object}/signeds3upload", f.authorized(f.completeUpload))
	mux.HandleFunc("GET /oss/v2/buckets/{bucket}/objects/{object}/details", f.authorized(f.objectDetails))
	mux.HandleFunc("PUT /s3/{part}", f.putPart)
	mux.HandleFunc("POST /modelderivative/v2/designdata/job", f.authorized(f.submit))
	mux.HandleFunc("GET /modelderivative/v2/designdata/{urn}/manifest", f.authorized(f.manifest))
	mux.HandleFunc("HEAD /derivativeservice/v2/derivatives/{id}", f.authorized(f.head))

	f.server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeAPS) config() *aps.Config {
	f.t.Helper()

	cfg := &aps.Config{
		BaseURL:        f.server.URL,
		ClientID:       testClientID,
		ClientSecret:   testClientSecret,
		BucketKey:      testBucket,
		VerifyInterval: "1ms",
		PollInterval:   "5ms",
	}
	require.NoError(f.t, cfg.Finalize(nil))
	return cfg
}

func (f *fakeAPS) system(cfg *aps.Config) aps.System {
	f.t.Helper()

	sys, err := aps.NewWithClient(cfg, f.server.Client(), discardLogger())
	require.NoError(f.t, err)
	return sys
}

func (f *fakeAPS) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPS) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer token-") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		reject := f.unauthorized > 0
		if reject {
			f.unauthorized--
		}
		f.mu.Unlock()

		if reject {
			http.Error(w, `{"developerMessage":"token expired"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeAPS) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, secret, ok := r.BasicAuth()
	assert.True(f.t, ok, "token request without basic auth")
	assert.NoError(f.t, r.ParseForm())

	if f.tokenStatus != http.StatusOK {
		writeJSON(w, f.tokenStatus, map[string]string{"error": "invalid_client"})
		return
	}
	if id != testClientID || secret != testClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	assert.Equal(f.t, "client_credentials", r.PostForm.Get("grant_type"))
	assert.Equal(f.t, aps.DefaultScope, r.PostForm.Get("scope"))

	f.tokenCalls++
	body := map[string]any{
		"access_token": fmt.Sprintf("token-%d", f.tokenCalls),
		"token_type":   "Bearer",
	}
	if f.expiresIn > 0 {
		body["expires_in"] = f.expiresIn
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeAPS) bucketDetails(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bucketExists {
		writeJSON(w, http.StatusNotFound, map[string]string{"reason": "Bucket not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"bucketKey": r.PathValue("bucket"), "policyKey": "persistent"})
}

func (f *fakeAPS) createBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BucketKey string `json:"bucketKey"`
		PolicyKey string `json:"policyKey"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(f.t, testBucket, req.BucketKey)
	assert.Equal(f.t, "persistent", req.PolicyKey)

	f.mu.Lock()
	f.bucketExists = true
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, req)
}

func (f *fakeAPS) beginUpload(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("parts"))
	assert.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.signedURLs >= 0 {
		n = f.signedURLs
	}

	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/s3/%d", f.server.URL, i)
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploadKey": f.uploadKey, "urls": urls})
}

func (f *fakeAPS) putPart(w http.ResponseWriter, r *http.Request) {
	assert.Empty(f.t, r.Header.Get("Authorization"), "signed url received bearer token")

	i, err := strconv.Atoi(r.PathValue("part"))
	assert.NoError(f.t, err)

	data, err := io.ReadAll(r.Body)
	assert.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, ok := f.partStatus[i]; ok {
		w.WriteHeader(status)
		return
	}
	f.parts[i] = data
	w.WriteHeader(http.StatusOK)
}

func (f *fakeAPS) completeUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UploadKey string `json:"uploadKey"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

	f.mu.Lock()
	defer f.mu.Unlock()

	assert.Equal(f.t, f.uploadKey, req.UploadKey)
	f.completed = true

	writeJSON(w, http.StatusOK, map[string]any{
		"objectId": "urn:adsk.objects:os.object:" + r.PathValue("bucket") + "/" + r.PathValue("object"),
		"size":     f.receivedLocked(),
	})
}

func (f *fakeAPS) objectDetails(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.detailCalls++
	writeJSON(w, http.StatusOK, map[string]any{"size": f.receivedLocked() + f.sizeOffset})
}

func (f *fakeAPS) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input struct {
			URN string `json:"urn"`
		} `json:"input"`
		Output struct {
			Formats []struct {
				Type  string   `json:"type"`
				Views []string `json:"views"`
			} `json:"formats"`
		} `json:"output"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Len(f.t, req.Output.Formats, 1)
	assert.Equal(f.t, "svf", req.Output.Formats[0].Type)
	assert.Equal(f.t, []string{"2d", "3d"}, req.Output.Formats[0].Views)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.submitted = append(f.submitted, req.Input.URN)
	writeJSON(w, f.submitStatus, map[string]string{"result": "created"})
}

func (f *fakeAPS) manifest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.manifestCalls++

	if f.manifestCode != 0 {
		http.Error(w, `{"diagnostic":"Requested resource does not exist."}`, f.manifestCode)
		return
	}

	if f.manifestFail > 0 {
		f.manifestFail--
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
		return
	}

	i := min(f.manifestCalls-1, len(f.manifests)-1)
	status := f.manifests[i]

	writeJSON(w, http.StatusOK, f.manifestBody(r.PathValue("urn"), status))
}

func (f *fakeAPS) manifestBody(urn, status string) map[string]any {
	progress := "50% complete"
	if status == "success" || status == "failed" {
		progress = "complete"
	}

	children := []map[string]any{
		{"guid": "sheet-1", "type": "geometry", "role": "2d", "name": "Sheet", "viewableID": "sheet-1"},
	}
	if f.geometry {
		children = append(children,
			map[string]any{"guid": "geo-1", "type": "geometry", "role": "3d", "name": "{3D}", "viewableID": "view-1", "mime": "application/autodesk-svf", "status": "success"},
			map[string]any{"guid": "geo-2", "type": "geometry", "role": "3d", "name": "Level 1", "viewableID": "view-2", "status": "success"},
			map[string]any{"guid": "geo-3", "type": "geometry", "role": "3d", "name": "No Viewable"},
		)
	}

	derivative := map[string]any{
		"name":       "model.rvt",
		"outputType": "svf",
		"status":     status,
		"progress":   progress,
		"children":   children,
	}
	if f.messages != nil {
		derivative["messages"] = f.messages
	}

	return map[string]any{
		"type":     "manifest",
		"urn":      urn,
		"status":   status,
		"progress": progress,
		"region":   "US",
		"derivatives": []any{
			map[string]any{"name": "thumbs", "outputType": "thumbnail", "status": "success"},
			derivative,
		},
	}
}

func (f *fakeAPS) head(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.WriteHeader(f.headStatus)
}

func (f *fakeAPS) receivedLocked() int64 {
	var n int64
	for _, p := range f.parts {
		n += int64(len(p))
	}
	return n
}

func (f *fakeAPS) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPS) callExact(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPS) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPS) set(fn func(f *fakeAPS)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
