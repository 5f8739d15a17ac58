package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/foxseedlab/koenote/internal/account"
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/capture"
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/foxseedlab/koenote/internal/restructurer"
	"github.com/foxseedlab/koenote/internal/transcriber"
)

type memStore struct {
	files     map[string][]byte
	saveCount int
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (m *memStore) Save(r io.Reader) (*artifact.SaveResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.saveCount++
	name := fmt.Sprintf("audio-%d-test.webm", m.saveCount)
	m.files[name] = data
	return &artifact.SaveResult{Filename: name, SizeBytes: int64(len(data))}, nil
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func (m *memStore) Open(filename string) (io.ReadSeekCloser, error) {
	data, ok := m.files[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	return nopReadSeekCloser{bytes.NewReader(data)}, nil
}

func (m *memStore) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memStore) Exists(filename string) bool {
	_, ok := m.files[filename]
	return ok
}

func (m *memStore) Size(filename string) (int64, error) {
	data, ok := m.files[filename]
	if !ok {
		return 0, os.ErrNotExist
	}
	return int64(len(data)), nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ transcriber.Input) (string, error) {
	return s.text, s.err
}

type stubRestructurer struct {
	result *restructurer.Result
	err    error
}

func (s *stubRestructurer) Restructure(_ context.Context, _ restructurer.Input) (*restructurer.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type testEnv struct {
	handler http.Handler
	repo    *repository.MemoryRepository
	store   *memStore
	stt     *stubTranscriber
	llm     *stubRestructurer
}

func newTestEnv() *testEnv {
	repo := repository.NewMemoryRepository()
	store := newMemStore()
	stt := &stubTranscriber{text: "hello world"}
	llm := &stubRestructurer{result: &restructurer.Result{Title: "Hello", Note: "Hello, world."}}

	notes := note.NewService(repo, store, stt, llm, "en")
	accounts := account.NewService(repo, "en")
	captures := capture.NewManager(config.MaxCaptureSeconds)
	h := NewHandler(notes, accounts, captures, store)

	return &testEnv{handler: h.Routes(), repo: repo, store: store, stt: stt, llm: llm}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func asOwner(id string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("x-user-id", id)
	}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

// audioUpload builds a multipart body with an "audio" part and optional extra
// form values.
func audioUpload(t *testing.T, contentType string, data []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="memo.webm"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardedEndpointsRequireIdentity(t *testing.T) {
	env := newTestEnv()
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/notes"},
		{http.MethodPost, "/api/notes/process-audio"},
		{http.MethodGet, "/api/settings"},
		{http.MethodPut, "/api/settings"},
		{http.MethodPost, "/api/capture"},
	} {
		rec := env.do(t, tc.method, tc.path, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "authentication required" {
			t.Fatalf("%s %s: unexpected error body %q", tc.method, tc.path, msg)
		}
	}
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/users", jsonBody(t, map[string]string{
		"username": "taro",
		"email":    "taro@example.com",
		"password": "secret",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[repository.User](t, rec)
	if created.ID == "" || created.Username != "taro" {
		t.Fatalf("unexpected user: %+v", created)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatal("response must not leak the password")
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "taro@example.com",
		"password": "secret",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	if got := decodeBody[repository.User](t, rec); got.ID != created.ID {
		t.Fatalf("login returned the wrong user: %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "taro@example.com",
		"password": "wrong",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "invalid credentials" {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	body := map[string]string{"username": "taro", "email": "taro@example.com", "password": "secret"}

	if rec := env.do(t, http.MethodPost, "/api/users", jsonBody(t, body)); rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", rec.Code)
	}
	body["username"] = "jiro"
	if rec := env.do(t, http.MethodPost, "/api/users", jsonBody(t, body)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a duplicate email, got %d", rec.Code)
	}
}

func TestProcessAudio_Success(t *testing.T) {
	env := newTestEnv()
	body, contentType := audioUpload(t, "audio/webm", []byte("webm-bytes"), map[string]string{"duration": "7"})

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	created := decodeBody[repository.Note](t, rec)
	if created.Title != "Hello" || created.OriginalTranscription != "hello world" {
		t.Fatalf("unexpected note: %+v", created)
	}
	if created.DurationSeconds != 7 {
		t.Fatalf("expected duration 7, got %d", created.DurationSeconds)
	}
	if created.AudioFilePath == nil {
		t.Fatal("audio must be retained under default settings")
	}

	rec = env.do(t, http.MethodGet, "/api/notes", nil, asOwner("owner-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if notes := decodeBody[[]repository.Note](t, rec); len(notes) != 1 || notes[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", notes)
	}
}

func TestProcessAudio_RejectsNonAudioMimetype(t *testing.T) {
	env := newTestEnv()
	body, contentType := audioUpload(t, "application/pdf", []byte("not audio"), nil)

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "only audio uploads are accepted" {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestProcessAudio_RejectsOversizeUpload(t *testing.T) {
	env := newTestEnv()
	body, contentType := audioUpload(t, "audio/webm", make([]byte, config.MaxUploadBytes+1), nil)

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "audio file exceeds the 50MB limit" {
		t.Fatalf("unexpected error body %q", msg)
	}
	if env.store.saveCount != 0 {
		t.Fatal("an oversize upload must never reach the store")
	}
}

func TestProcessAudio_RequiresAudioField(t *testing.T) {
	env := newTestEnv()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("duration", "3")
	_ = w.Close()

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", &buf, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", w.FormDataContentType())
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessAudio_RejectsNegativeDuration(t *testing.T) {
	env := newTestEnv()
	body, contentType := audioUpload(t, "audio/webm", []byte("webm-bytes"), map[string]string{"duration": "-5"})

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessAudio_TranscriptionFailure(t *testing.T) {
	env := newTestEnv()
	env.stt.err = fmt.Errorf("upstream 500")
	body, contentType := audioUpload(t, "audio/webm", []byte("webm-bytes"), nil)

	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "transcription failed" {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/api/notes/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteNote_Idempotent(t *testing.T) {
	env := newTestEnv()
	body, contentType := audioUpload(t, "audio/webm", []byte("webm-bytes"), nil)
	rec := env.do(t, http.MethodPost, "/api/notes/process-audio", body, asOwner("owner-1"), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("process: expected 201, got %d", rec.Code)
	}
	created := decodeBody[repository.Note](t, rec)

	if rec := env.do(t, http.MethodDelete, "/api/notes/"+created.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("first delete: expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/notes/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestSettings_UpsertMerge(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/settings", nil, asOwner("owner-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	initial := decodeBody[repository.Settings](t, rec)
	if !initial.KeepRawAudio || initial.NoteOrganizationStyle != repository.StyleMinimal {
		t.Fatalf("unexpected defaults: %+v", initial)
	}

	rec = env.do(t, http.MethodPut, "/api/settings", jsonBody(t, map[string]any{
		"noteOrganizationStyle": "narrative",
	}), asOwner("owner-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/api/settings", jsonBody(t, map[string]any{
		"keepRawAudio": false,
	}), asOwner("owner-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d", rec.Code)
	}
	merged := decodeBody[repository.Settings](t, rec)
	if merged.NoteOrganizationStyle != repository.StyleNarrative {
		t.Fatal("earlier write must survive a later partial update")
	}
	if merged.KeepRawAudio {
		t.Fatal("later write must be applied")
	}
}

func TestSettings_RejectsUnknownEnum(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPut, "/api/settings", jsonBody(t, map[string]any{
		"audioQuality": "lossless",
	}), asOwner("owner-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServeAudio(t *testing.T) {
	env := newTestEnv()
	saved, err := env.store.Save(bytes.NewReader([]byte("webm-bytes")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/audio/"+saved.Filename, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/webm" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "webm-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	if rec := env.do(t, http.MethodGet, "/api/audio/audio-0-gone.webm", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing file, got %d", rec.Code)
	}
}

func TestServeAudio_RejectsPathLikeNames(t *testing.T) {
	env := newTestEnv()
	// %5C is an encoded backslash; chi decodes it into the URL param.
	rec := env.do(t, http.MethodGet, "/api/audio/..%5Csecret.webm", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCaptureLifecycle(t *testing.T) {
	env := newTestEnv()
	owner := asOwner("owner-1")

	rec := env.do(t, http.MethodPost, "/api/capture", nil, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	started := decodeBody[captureStateResponse](t, rec)
	if started.State != capture.StateRecording {
		t.Fatalf("expected recording, got %s", started.State)
	}

	base := "/api/capture/" + started.ID
	rec = env.do(t, http.MethodPost, base+"/chunks", bytes.NewReader([]byte("chunk-a")), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("chunk: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, base+"/pause", nil, owner); rec.Code != http.StatusOK {
		t.Fatalf("pause: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/resume", nil, owner); rec.Code != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, base+"/chunks", bytes.NewReader([]byte("chunk-b")), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("chunk: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base+"/stop", nil, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", rec.Code)
	}
	stopped := decodeBody[captureStateResponse](t, rec)
	if stopped.State != capture.StateStopped {
		t.Fatalf("expected stopped, got %s", stopped.State)
	}
	if stopped.SizeBytes != int64(len("chunk-achunk-b")) {
		t.Fatalf("expected both chunks in the artifact, got %d bytes", stopped.SizeBytes)
	}

	rec = env.do(t, http.MethodPost, base+"/process", nil, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("process: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[repository.Note](t, rec)
	if created.Title != "Hello" {
		t.Fatalf("unexpected note: %+v", created)
	}

	// session is released after a successful process
	if rec := env.do(t, http.MethodPost, base+"/stop", nil, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after release, got %d", rec.Code)
	}
}

func TestCapture_EmptyChunkRejected(t *testing.T) {
	env := newTestEnv()
	owner := asOwner("owner-1")

	rec := env.do(t, http.MethodPost, "/api/capture", nil, owner)
	started := decodeBody[captureStateResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/capture/"+started.ID+"/chunks", bytes.NewReader(nil), owner)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty chunk, got %d", rec.Code)
	}
}

func TestCapture_ChunkWhilePausedConflicts(t *testing.T) {
	env := newTestEnv()
	owner := asOwner("owner-1")

	rec := env.do(t, http.MethodPost, "/api/capture", nil, owner)
	started := decodeBody[captureStateResponse](t, rec)
	base := "/api/capture/" + started.ID

	if rec := env.do(t, http.MethodPost, base+"/pause", nil, owner); rec.Code != http.StatusOK {
		t.Fatalf("pause: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, base+"/chunks", bytes.NewReader([]byte("late")), owner)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a chunk while paused, got %d", rec.Code)
	}
}

func TestCapture_ProcessEmptySession(t *testing.T) {
	env := newTestEnv()
	owner := asOwner("owner-1")

	rec := env.do(t, http.MethodPost, "/api/capture", nil, owner)
	started := decodeBody[captureStateResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/capture/"+started.ID+"/process", nil, owner)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty session, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "capture session has no audio" {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestCapture_ForeignOwnerCannotTouchSession(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/capture", nil, asOwner("owner-1"))
	started := decodeBody[captureStateResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/capture/"+started.ID+"/stop", nil, asOwner("owner-2"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign owner, got %d", rec.Code)
	}
}

func TestCapture_Reset(t *testing.T) {
	env := newTestEnv()
	owner := asOwner("owner-1")

	rec := env.do(t, http.MethodPost, "/api/capture", nil, owner)
	started := decodeBody[captureStateResponse](t, rec)
	base := "/api/capture/" + started.ID

	if rec := env.do(t, http.MethodDelete, base, nil, owner); rec.Code != http.StatusNoContent {
		t.Fatalf("reset: expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/stop", nil, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", rec.Code)
	}
}
