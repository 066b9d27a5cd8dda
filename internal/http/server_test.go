package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haushalt/internal/classify"
	"haushalt/internal/core"
	"haushalt/internal/fixedcosts"
	"haushalt/internal/ingest"
	applog "haushalt/internal/log"
	"haushalt/internal/store/memory"
)

const csvHeader = "Buchungstag;Buchungstext;Verwendungszweck;Beguenstigter/Zahlungspflichtiger;Betrag\n"

func testCategories() []core.Category {
	return []core.Category{
		{ID: "cat-abo", Name: "Abos & Subscriptions", Type: core.CategoryExpense, SortOrder: 1},
		{ID: "cat-gehalt", Name: "Gehalt", Type: core.CategoryIncome, SortOrder: 2},
		{ID: "cat-essen", Name: "Lebensmittel", Type: core.CategoryExpense, SortOrder: 3},
	}
}

type fakePublisher struct {
	sessionID string
	count     int
	calls     int
	err       error
}

func (p *fakePublisher) PublishImportCompleted(_ context.Context, sessionID string, count int) error {
	p.calls++
	p.sessionID = sessionID
	p.count = count
	return p.err
}

func newTestServer(st *memory.Store, pub ImportPublisher) *Server {
	session := ingest.NewSession(st, st, classify.Default())
	detector := fixedcosts.NewDetector(fixedcosts.DefaultKeywords())
	srv := NewServer(":0", session, st, detector, pub, fixedcosts.DefaultWindowMonths)
	srv.now = func() time.Time { return time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC) }
	return srv
}

func uploadRequest(t *testing.T, rows ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "umsaetze.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvHeader + strings.Join(rows, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadBuildsPreview(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;LASTSCHRIFT;Spotify Premium;SPOTIFY;-9,99",
		"01.04.2024;GUTSCHRIFT;Gehalt April;;2450,00",
	))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "previewing", resp.Phase)
	assert.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2024-03-15", resp.Rows[0].Date)
	assert.Equal(t, "cat-abo", resp.Rows[0].CategoryID)
	assert.True(t, resp.Rows[1].IsIncome)
	assert.Equal(t, 2, resp.Summary.TotalCount)
	assert.Equal(t, 1, resp.Summary.IncomeCount)
	assert.Len(t, resp.Categories, 3)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "keine Transaktionen")
}

func TestUploadRequiresMultipart(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader("not a form"))
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignOverridesGuess(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;KARTENZAHLUNG;;ACME GMBH;-13,37",
	))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/assignments", assignRequest{Index: 0, CategoryID: "cat-essen"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cat-essen", resp.Rows[0].CategoryID)
	assert.Equal(t, 1, resp.Summary.Categorised)
}

func TestAssignRejectsBadIndex(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;KARTENZAHLUNG;;ACME GMBH;-13,37",
	))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/assignments", assignRequest{Index: 7, CategoryID: "cat-essen"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignOutsidePreviewConflicts(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/assignments", assignRequest{Index: 0, CategoryID: "cat-essen"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestImportPersistsAndPublishes(t *testing.T) {
	st := memory.New(testCategories())
	pub := &fakePublisher{}
	srv := newTestServer(st, pub)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;LASTSCHRIFT;Spotify Premium;SPOTIFY;-9,99",
		"01.04.2024;GUTSCHRIFT;Gehalt April;;2450,00",
	))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/import", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, "imported", resp.Phase)

	assert.Len(t, st.Rows(), 2)
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, 2, pub.count)
	assert.NotEmpty(t, pub.sessionID)
}

func TestImportSurvivesPublishFailure(t *testing.T) {
	st := memory.New(testCategories())
	pub := &fakePublisher{err: context.DeadlineExceeded}
	srv := newTestServer(st, pub)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;LASTSCHRIFT;Spotify Premium;SPOTIFY;-9,99",
	))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/import", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, st.Rows(), 1)
}

func TestImportWithoutPreviewConflicts(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/import", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelDiscardsPreview(t *testing.T) {
	srv := newTestServer(memory.New(testCategories()), nil)

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, uploadRequest(t,
		"15.03.2024;LASTSCHRIFT;Spotify Premium;SPOTIFY;-9,99",
	))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/session/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "empty", resp.Phase)
	assert.Empty(t, resp.Rows)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(memory.New(nil), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(memory.New(nil), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

// Every routed request goes through the request logger, and failures are
// logged above Info.
func TestRequestLogging(t *testing.T) {
	srv := newTestServer(memory.New(nil), nil)

	var buf bytes.Buffer
	srv.requests = applog.NewRequestLogger(applog.New(applog.Config{
		Handler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"msg":"Request started"`)
	assert.Contains(t, out, `"msg":"Request completed"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"path":"/api/categories"`)
	assert.Contains(t, out, `"component":"http"`)
	assert.Contains(t, out, `"request_id":"req_`)

	buf.Reset()
	req = httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status_code":405`)
}
