package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabke213/proofpack/internal/export"
	"github.com/grabke213/proofpack/internal/extract"
	"github.com/grabke213/proofpack/internal/job"
	"github.com/grabke213/proofpack/internal/persistence"
	"github.com/grabke213/proofpack/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "proofpack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	builder, err := export.NewBuilder(export.Identity{
		AppName:  "PHD Precision Certificate",
		Company:  "PHD — Precision Home Delivery",
		DocTitle: "Precision Delivery & Installation Certificate of Completion",
		Version:  "v1",
	})
	require.NoError(t, err)

	srv := NewServer(session.New(store, builder))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON[T any](t *testing.T, ts *httptest.Server, path string) (int, T) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out T
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func postJSON[T any](t *testing.T, ts *httptest.Server, path string, body any) (int, T) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func do(t *testing.T, ts *httptest.Server, method, path string) int {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func uploadPhoto(t *testing.T, ts *httptest.Server, path string) int {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 140, B: 220, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+path, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestCaptureToExport(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, j := getJSON[*job.Job](t, ts, "/api/session")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(j.ID, "PC-"))
	require.Len(t, j.Appliances, 1)
	assert.Equal(t, job.ServiceDelivery, j.ServiceType)

	// Export is blocked while the record is incomplete.
	resp, err := http.Get(ts.URL + "/api/session/export")
	require.NoError(t, err)
	var blocked struct {
		Issues []struct {
			Message string `json:"message"`
		} `json:"issues"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&blocked))
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotEmpty(t, blocked.Issues)
	assert.Equal(t, "Project Address is required.", blocked.Issues[0].Message)

	status, j = postJSON[*job.Job](t, ts, "/api/session/edits", []session.FieldEdit{
		{Field: "address", Value: "12 Elm St"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12 Elm St", j.Address)

	require.Equal(t, http.StatusOK,
		uploadPhoto(t, ts, "/api/session/appliances/"+j.Appliances[0].ID+"/photo"))

	resp, err = http.Get(ts.URL + "/api/session/export")
	require.NoError(t, err)
	doc, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	html := string(doc)
	assert.Contains(t, html, "12 Elm St")
	assert.Contains(t, html, "Unit placed in requested location")
	assert.Contains(t, html, "Doors protected during move")
	assert.NotContains(t, html, "Functional Check")
}

func TestApplianceEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, added := postJSON[struct {
		ID  string   `json:"id"`
		Job *job.Job `json:"job"`
	}](t, ts, "/api/session/appliances", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, added.Job.Appliances, 2)

	status, j := postJSON[*job.Job](t, ts, "/api/session/appliances/"+added.ID+"/checklist",
		map[string]any{"index": 0, "done": true})
	require.Equal(t, http.StatusOK, status)
	ap, err := j.Appliance(added.ID)
	require.NoError(t, err)
	assert.True(t, ap.Checklist[0].Done)

	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodDelete, "/api/session/appliances/"+added.ID))
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodDelete, "/api/session/appliances/"+added.ID))
}

func TestEditRejections(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, j := getJSON[*job.Job](t, ts, "/api/session")
	apID := j.Appliances[0].ID

	// Condition edits are locked unless the unit was unwrapped.
	status, _ := postJSON[map[string]any](t, ts, "/api/session/edits", []session.FieldEdit{
		{ApplianceID: apID, Field: "inspection", Value: string(job.InspectionNotPossible)},
		{ApplianceID: apID, Field: "condition", Value: string(job.ConditionDamageNoted)},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = postJSON[map[string]any](t, ts, "/api/session/edits", []session.FieldEdit{
		{Field: "noSuchField", Value: "x"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSignatureAndLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, _ := postJSON[map[string]any](t, ts, "/api/session/signature",
		map[string]any{"points": []map[string]int{{"x": 5, "y": 5}, {"x": 80, "y": 40}}})
	assert.Equal(t, http.StatusOK, status)

	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/start"))
	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/finish"))

	status, _ = postJSON[map[string]any](t, ts, "/api/session/edits", []session.FieldEdit{
		{Field: "address", Value: "12 Elm St"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/save"))

	_, j := getJSON[*job.Job](t, ts, "/api/session")
	require.NotNil(t, j.StartedAt)
	require.NotNil(t, j.FinishedAt)

	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodDelete, "/api/session/signature"))
}

func TestSaveWithoutAddressRejected(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, ts, http.MethodPost, "/api/session/save"))
}

func TestImportEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	text := "Hi team,\nJohn Carter confirmed delivery SAT 9:30 AM\n" +
		"1450 Pembina Highway Ave. Winnipeg\nFridge model WRF535SWHZ\n" +
		"Call (204) 555-0198"
	status, fields := postJSON[extract.Fields](t, ts, "/api/import/extract",
		map[string]string{"text": text})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1450 Pembina Highway Ave", fields.Address)
	assert.Equal(t, "John Carter", fields.ContactName)

	status, j := postJSON[*job.Job](t, ts, "/api/import/apply", fields)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1450 Pembina Highway Ave", j.Address)
	assert.Equal(t, "WRF535SWHZ", j.Appliances[0].Model)
}

func TestJobsEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, _ := postJSON[map[string]any](t, ts, "/api/session/edits", []session.FieldEdit{
		{Field: "address", Value: "1 First St"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/save"))
	_, first := getJSON[*job.Job](t, ts, "/api/session")

	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/new"))
	status, _ = postJSON[map[string]any](t, ts, "/api/session/edits", []session.FieldEdit{
		{Field: "address", Value: "2 Second St"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/api/session/save"))

	status, list := getJSON[[]jobSummary](t, ts, "/api/jobs")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 2)
	assert.Equal(t, "2 Second St", list[0].Address)
	assert.Equal(t, "1 First St", list[1].Address)

	// Loading a stored record replaces the session.
	status, loaded := postJSON[*job.Job](t, ts, "/api/session/load",
		map[string]string{"id": first.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1 First St", loaded.Address)

	status, _ = postJSON[map[string]any](t, ts, "/api/session/load",
		map[string]string{"id": "PC-00000000-XXXXXX"})
	assert.Equal(t, http.StatusNotFound, status)

	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodDelete, "/api/jobs/"+first.ID))
	status, list = getJSON[[]jobSummary](t, ts, "/api/jobs")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusOK, do(t, ts, http.MethodDelete, "/api/jobs"))
	status, list = getJSON[[]jobSummary](t, ts, "/api/jobs")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)
}

func TestStaticUI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body>capture ui</body></html>"), 0o644))

	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "proofpack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	builder, err := export.NewBuilder(export.Identity{AppName: "x", Company: "y", DocTitle: "z", Version: "v1"})
	require.NoError(t, err)

	srv := NewServer(session.New(store, builder), WithUI(dir, true))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "capture ui")
}
