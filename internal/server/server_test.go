package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/logger"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

func newTestServer(t *testing.T) (*httptest.Server, *catalog.Catalog) {
	t.Helper()
	file, err := xmltree.LoadFile("../catalog/testdata/orders.xml")
	require.NoError(t, err)
	cat, err := catalog.New(file)
	require.NoError(t, err)

	ts := httptest.NewServer(New(cat, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, cat
}

func getJSON(t *testing.T, url string, status int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, status, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts, cat := newTestServer(t)

	var body map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, cat.ParseID(), body["parse_id"])
}

func TestListTables(t *testing.T) {
	ts, _ := newTestServer(t)

	var body []TableSummary
	getJSON(t, ts.URL+"/tables", http.StatusOK, &body)
	require.Len(t, body, 16)
	assert.Equal(t, TableSummary{Name: "fields", Description: body[2].Description, Rows: 5}, body[2])
	assert.NotEmpty(t, body[2].Description)
}

func TestGetTable(t *testing.T) {
	ts, _ := newTestServer(t)

	var body TableResponse
	getJSON(t, ts.URL+"/tables/layout_fields?offset=1&limit=2", http.StatusOK, &body)

	assert.Equal(t, "layout_fields", body.Name)
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, 1, body.Offset)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, ColumnInfo{Name: "layout_id", Type: "int"}, body.Columns[0])
	// JSON numbers decode as float64
	assert.Equal(t, []any{float64(1), "Orders", float64(1065089), "Orders", "INV_Invoices", "Price"}, body.Rows[0])
}

func TestGetTable_NullsAndPastEnd(t *testing.T) {
	ts, _ := newTestServer(t)

	var body TableResponse
	getJSON(t, ts.URL+"/tables/script_layouts", http.StatusOK, &body)
	require.Len(t, body.Rows, 2)
	assert.Nil(t, body.Rows[0][6])

	getJSON(t, ts.URL+"/tables/script_layouts?offset=10", http.StatusOK, &body)
	assert.Empty(t, body.Rows)
	assert.Equal(t, 2, body.Offset)
}

func TestGetTable_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	var e ErrorResponse
	getJSON(t, ts.URL+"/tables/nope", http.StatusNotFound, &e)
	assert.Contains(t, e.Error, "unknown table")
	assert.NotEmpty(t, e.RequestID)

	getJSON(t, ts.URL+"/tables/fields?limit=-1", http.StatusBadRequest, &e)
	assert.Contains(t, e.Error, "invalid limit")

	getJSON(t, ts.URL+"/nowhere", http.StatusNotFound, &e)
}

func TestImpact(t *testing.T) {
	ts, _ := newTestServer(t)

	var body ImpactResponse
	getJSON(t, ts.URL+"/impact/Invoices", http.StatusOK, &body)
	assert.Equal(t, "Invoices", body.File)
	assert.Equal(t, 1, body.Tables.Total)
	assert.Equal(t, 1, body.FieldJoins.Total)
	assert.Equal(t, 1, body.CalculatedFields.Total)
	assert.Equal(t, []any{"INV_Invoices", "Price", float64(2)}, body.LayoutFields.Rows[0])
	assert.Equal(t, 3, body.ScriptFields.Total)

	var e ErrorResponse
	getJSON(t, ts.URL+"/impact/Contacts", http.StatusNotFound, &e)
}

func TestRequestLogging(t *testing.T) {
	file, err := xmltree.LoadFile("../catalog/testdata/orders.xml")
	require.NoError(t, err)
	cat, err := catalog.New(file)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	s := New(cat, logger.New(&logger.Config{Level: "info", Format: "json", Output: buf}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tables/fields", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "/tables/fields", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestImpact_LogsWithRequestID(t *testing.T) {
	file, err := xmltree.LoadFile("../catalog/testdata/orders.xml")
	require.NoError(t, err)
	cat, err := catalog.New(file)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	s := New(cat, logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/impact/Invoices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "impact report", entries[0]["message"])
	assert.Equal(t, float64(3), entries[0]["script_fields"])
	assert.Equal(t, "request", entries[1]["message"])
	assert.Equal(t, entries[1]["request_id"], entries[0]["request_id"])
}

func TestRun_StopsOnCancel(t *testing.T) {
	file, err := xmltree.LoadFile("../catalog/testdata/orders.xml")
	require.NoError(t, err)
	cat, err := catalog.New(file)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(cat, nil).Run(ctx, Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
