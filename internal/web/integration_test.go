package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/dugoutapp/dugout/internal/catalog"
	"github.com/dugoutapp/dugout/internal/db"
	"github.com/dugoutapp/dugout/internal/service"
	"github.com/dugoutapp/dugout/internal/store"
	"github.com/dugoutapp/dugout/internal/vision"
	"github.com/dugoutapp/dugout/internal/web"
	"github.com/dugoutapp/dugout/internal/web/templates"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes, and
// the payload stays below the compression threshold so it is stored verbatim.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// memBlobStore is a simple in-memory implementation of blobstore.BlobStore.
type memBlobStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	mimes map[string]string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memBlobStore) Upload(_ context.Context, key, mimeType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.mimes[key] = mimeType
	return nil
}

func (m *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", fmt.Errorf("key not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memBlobStore) PublicURL(key string) string {
	return "/images/" + key
}

func (m *memBlobStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.mimes, key)
	}
	return nil
}

// fixedAnalyzer returns a pre-configured suggestion for any image.
type fixedAnalyzer struct {
	result *vision.Suggestion
}

func (f *fixedAnalyzer) Suggest(_ context.Context, _ io.Reader, _ string) (*vision.Suggestion, error) {
	return f.result, nil
}

// newTestServer sets up a real web.Server backed by in-memory SQLite.
// analyzer may be nil to run with suggestions disabled. Returns the test
// server and a cleanup function.
func newTestServer(t *testing.T, analyzer vision.Analyzer) (*httptest.Server, func()) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	blobs := newMemBlobStore()
	svc := service.NewItemService(
		store.NewItemStore(database),
		blobs,
		catalog.Default(),
		analyzer,
		slog.Default(),
	)
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, blobs, slog.Default()))
	return srv, func() {
		srv.Close()
		_ = database.Close()
	}
}

// itemForm builds a multipart/form-data body from the given fields, with an
// optional "image" file part.
func itemForm(t *testing.T, fields map[string]string, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if imageData != nil {
		fw, err := w.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(imageData); err != nil {
			t.Fatalf("write image data: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

// createItem posts the form to path and expects success. The default client
// follows the redirect back to the list page, whose body is returned.
func createItem(t *testing.T, srv *httptest.Server, path string, fields map[string]string, imageData []byte) string {
	t.Helper()
	body, contentType := itemForm(t, fields, imageData)
	resp, err := http.Post(srv.URL+path, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s status %d: %s", path, resp.StatusCode, b)
	}
	return string(b)
}

var itemLinkRe = regexp.MustCompile(`href="/(?:hats|jerseys)/([^"?]+)"`)

// firstItemID scrapes the first item detail link from a list page.
func firstItemID(t *testing.T, srv *httptest.Server, listPath string) string {
	t.Helper()
	resp, err := http.Get(srv.URL + listPath)
	if err != nil {
		t.Fatalf("GET %s: %v", listPath, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ := io.ReadAll(resp.Body)
	m := itemLinkRe.FindStringSubmatch(string(b))
	if m == nil {
		t.Fatalf("no item link found in %s:\n%s", listPath, b)
	}
	return m[1]
}

// TestIntegration_CreateHat verifies the create flow end to end: the form
// post redirects to the list, which shows the new hat.
func TestIntegration_CreateHat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	body := createItem(t, srv, "/hats", map[string]string{
		"team":         "Chicago Cubs",
		"color_design": "royal blue",
		"location":     "Box A",
		"price_paid":   "34.99",
	}, minimalJPEG)

	if !strings.Contains(body, "Chicago Cubs") {
		t.Errorf("list page does not contain 'Chicago Cubs':\n%s", body)
	}
	if !strings.Contains(body, "Box A") {
		t.Errorf("list page does not contain 'Box A':\n%s", body)
	}
}

// TestIntegration_CreateHat_HTMXRedirect verifies that an htmx form post gets
// an HX-Redirect header instead of a plain 303.
func TestIntegration_CreateHat_HTMXRedirect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	body, contentType := itemForm(t, map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, nil)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/hats", body)
	if err != nil {
		t.Fatalf("new POST request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("HX-Request", "true")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /hats: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if got := resp.Header.Get("HX-Redirect"); got != "/hats" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/hats")
	}
}

// TestIntegration_CreateValidation verifies that a hat with an unknown team is
// rejected with a 400 before anything is stored.
func TestIntegration_CreateValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	body, contentType := itemForm(t, map[string]string{
		"team":     "Springfield Isotopes",
		"location": "Box A",
	}, nil)
	resp, err := http.Post(srv.URL+"/hats", contentType, body)
	if err != nil {
		t.Fatalf("POST /hats: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/hats")
	if err != nil {
		t.Fatalf("GET /hats: %v", err)
	}
	t.Cleanup(func() { _ = listResp.Body.Close() })
	b, _ := io.ReadAll(listResp.Body)
	if strings.Contains(string(b), "Springfield Isotopes") {
		t.Errorf("rejected hat appeared in the list:\n%s", b)
	}
}

// TestIntegration_JerseyPlayerFilter verifies that the player filter narrows
// the jersey list with a case-insensitive substring match.
func TestIntegration_JerseyPlayerFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/jerseys", map[string]string{
		"team":     "Boston Red Sox",
		"player":   "Mookie Betts",
		"location": "Closet",
	}, nil)
	createItem(t, srv, "/jerseys", map[string]string{
		"team":     "Los Angeles Dodgers",
		"player":   "Shohei Ohtani",
		"location": "Closet",
	}, nil)

	resp, err := http.Get(srv.URL + "/jerseys?player=mookie")
	if err != nil {
		t.Fatalf("GET /jerseys: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if !strings.Contains(string(b), "Mookie Betts") {
		t.Errorf("filtered list does not contain 'Mookie Betts':\n%s", b)
	}
	if strings.Contains(string(b), "Shohei Ohtani") {
		t.Errorf("filtered list should not contain 'Shohei Ohtani':\n%s", b)
	}
}

// TestIntegration_Dashboard verifies that the dashboard aggregates created
// items and that the type filter narrows the counts.
func TestIntegration_Dashboard(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/hats", map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, nil)
	createItem(t, srv, "/jerseys", map[string]string{
		"team":     "Boston Red Sox",
		"player":   "Mookie Betts",
		"location": "Closet",
	}, nil)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	for _, want := range []string{"Chicago Cubs", "Boston Red Sox", "Box A"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("dashboard does not contain %q:\n%s", want, b)
		}
	}

	resp, err = http.Get(srv.URL + "/?type=hats")
	if err != nil {
		t.Fatalf("GET /?type=hats: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if strings.Contains(string(b), "Mookie Betts") {
		t.Errorf("hats-only dashboard should not list jerseys:\n%s", b)
	}

	// The location filter narrows both lists; only the Box A hat matches.
	resp, err = http.Get(srv.URL + "/?location=Box+A")
	if err != nil {
		t.Fatalf("GET /?location=Box+A: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if strings.Contains(string(b), "Mookie Betts") {
		t.Errorf("location-filtered dashboard should not list the Closet jersey:\n%s", b)
	}
}

// TestIntegration_ServeImage verifies that an uploaded photo can be fetched
// back through /images/{key}.
func TestIntegration_ServeImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	body := createItem(t, srv, "/hats", map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, minimalJPEG)

	m := regexp.MustCompile(`src="(/images/[^"]+)"`).FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no image URL found in list page:\n%s", body)
	}

	resp, err := http.Get(srv.URL + m[1])
	if err != nil {
		t.Fatalf("GET %s: %v", m[1], err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	b, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(b, minimalJPEG) {
		t.Errorf("served image differs from uploaded bytes (%d vs %d)", len(b), len(minimalJPEG))
	}
}

// TestIntegration_UpdateItem verifies that editing a jersey rewrites its
// fields.
func TestIntegration_UpdateItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/jerseys", map[string]string{
		"team":     "Boston Red Sox",
		"player":   "Mookie Betts",
		"location": "Closet",
	}, nil)
	id := firstItemID(t, srv, "/jerseys")

	body, contentType := itemForm(t, map[string]string{
		"team":     "Boston Red Sox",
		"player":   "Mookie Betts",
		"location": "Dresser",
	}, nil)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/jerseys/"+id, body)
	if err != nil {
		t.Fatalf("new PUT request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /jerseys/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	// The location dropdown always lists every option; the new value must be
	// the selected one.
	if !strings.Contains(string(b), `value="Dresser" selected`) {
		t.Errorf("detail page does not select the new location:\n%s", b)
	}
}

// TestIntegration_DeleteItem verifies that DELETE removes the item and
// redirects back to the list.
func TestIntegration_DeleteItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/hats", map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, nil)
	id := firstItemID(t, srv, "/hats")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/hats/"+id, nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	req.Header.Set("HX-Request", "true")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /hats/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("HX-Redirect"); got != "/hats" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/hats")
	}

	detail, err := http.Get(srv.URL + "/hats/" + id)
	if err != nil {
		t.Fatalf("GET /hats/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = detail.Body.Close() })
	if detail.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", detail.StatusCode)
	}
}

// TestIntegration_DeepLink verifies that a list URL carrying ?id= lands on
// that item's detail page.
func TestIntegration_DeepLink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/hats", map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, nil)
	id := firstItemID(t, srv, "/hats")

	resp, err := http.Get(srv.URL + "/hats?id=" + id)
	if err != nil {
		t.Fatalf("GET /hats?id=%s: %v", id, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	// The redirect should land on the detail page, which carries the delete
	// control.
	if !strings.Contains(string(b), "hx-delete") {
		t.Errorf("deep link did not land on the detail page:\n%s", b)
	}
}

// TestIntegration_KindNamespaces verifies that a hat cannot be fetched,
// rewritten, or deleted through the jersey routes.
func TestIntegration_KindNamespaces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	createItem(t, srv, "/hats", map[string]string{
		"team":     "Chicago Cubs",
		"location": "Box A",
	}, nil)
	id := firstItemID(t, srv, "/hats")

	resp, err := http.Get(srv.URL + "/jerseys/" + id)
	if err != nil {
		t.Fatalf("GET /jerseys/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET: expected 404, got %d", resp.StatusCode)
	}

	// A cross-kind update would validate against the jersey enumerations and
	// stamp a player name onto the hat.
	body, contentType := itemForm(t, map[string]string{
		"team":     "Chicago Cubs",
		"player":   "Somebody",
		"location": "Closet",
	}, nil)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/jerseys/"+id, body)
	if err != nil {
		t.Fatalf("new PUT request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /jerseys/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = putResp.Body.Close() })
	if putResp.StatusCode != http.StatusNotFound {
		t.Errorf("PUT: expected 404, got %d", putResp.StatusCode)
	}

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/jerseys/"+id, nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /jerseys/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = delResp.Body.Close() })
	if delResp.StatusCode != http.StatusNotFound {
		t.Errorf("DELETE: expected 404, got %d", delResp.StatusCode)
	}

	// The hat is untouched.
	detail, err := http.Get(srv.URL + "/hats/" + id)
	if err != nil {
		t.Fatalf("GET /hats/%s: %v", id, err)
	}
	t.Cleanup(func() { _ = detail.Body.Close() })
	b, _ := io.ReadAll(detail.Body)
	if detail.StatusCode != http.StatusOK {
		t.Fatalf("expected hat to survive, got %d", detail.StatusCode)
	}
	if !strings.Contains(string(b), `value="Box A" selected`) {
		t.Errorf("hat location changed through the jersey route:\n%s", b)
	}
	if strings.Contains(string(b), "Somebody") {
		t.Errorf("hat acquired a player name through the jersey route:\n%s", b)
	}
}

// TestIntegration_AddFormOneShot verifies that ?add=true opens the creation
// form and that the page clears the parameter from the address after use.
func TestIntegration_AddFormOneShot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/hats?add=true")
	if err != nil {
		t.Fatalf("GET /hats?add=true: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}
	if !strings.Contains(string(b), `hx-post="/hats"`) {
		t.Errorf("creation form not rendered:\n%s", b)
	}
	if !strings.Contains(string(b), "history.replaceState") {
		t.Errorf("page does not clear the add parameter from the address:\n%s", b)
	}
}

// TestIntegration_Suggest verifies that POST /suggest returns the analyzer's
// suggestion as JSON.
func TestIntegration_Suggest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	analyzer := &fixedAnalyzer{result: &vision.Suggestion{
		Kind:        "hat",
		Team:        "Chicago Cubs",
		ColorDesign: "royal blue",
	}}
	srv, cleanup := newTestServer(t, analyzer)
	defer cleanup()

	body, contentType := itemForm(t, nil, minimalJPEG)
	resp, err := http.Post(srv.URL+"/suggest", contentType, body)
	if err != nil {
		t.Fatalf("POST /suggest: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["team"] != "Chicago Cubs" {
		t.Errorf("team = %q, want 'Chicago Cubs'", got["team"])
	}
	if got["kind"] != "hat" {
		t.Errorf("kind = %q, want 'hat'", got["kind"])
	}
}

// TestIntegration_SuggestDisabled verifies that /suggest reports 503 when no
// vision backend is configured.
func TestIntegration_SuggestDisabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	body, contentType := itemForm(t, nil, minimalJPEG)
	resp, err := http.Post(srv.URL+"/suggest", contentType, body)
	if err != nil {
		t.Fatalf("POST /suggest: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}
