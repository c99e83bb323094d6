package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// TableSummary is one entry of GET /tables.
type TableSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
}

// ColumnInfo describes a column in a table response.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableResponse is a page of one table.
type TableResponse struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
	Rows    [][]any      `json:"rows"`
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
}

// ImpactResponse is the body of GET /impact/{file}.
type ImpactResponse struct {
	File             string         `json:"file"`
	Tables           *TableResponse `json:"tables"`
	FieldJoins       *TableResponse `json:"field_joins"`
	CalculatedFields *TableResponse `json:"calculated_fields"`
	LayoutFields     *TableResponse `json:"layout_fields"`
	ScriptFields     *TableResponse `json:"script_fields"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"parse_id": s.cat.ParseID(),
	})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	all := s.cat.All()
	out := make([]TableSummary, len(all))
	for i, t := range all {
		out[i] = TableSummary{Name: t.Name(), Description: t.Description(), Rows: t.Len()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := s.cat.Table(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown table: "+name)
		return
	}

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page(t, offset, limit))
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	rep := s.cat.ImpactReport(chi.URLParam(r, "file"))
	logger.FromContext(r.Context()).DebugWith("impact report", map[string]interface{}{
		"file":              rep.File,
		"tables":            rep.Tables.Len(),
		"field_joins":       rep.FieldJoins.Len(),
		"calculated_fields": rep.CalculatedFields.Len(),
		"layout_fields":     rep.LayoutFields.Len(),
		"script_fields":     rep.ScriptFields.Len(),
	})
	if rep.Empty() {
		writeError(w, r, http.StatusNotFound, "no table occurrence refers to file "+rep.File)
		return
	}

	writeJSON(w, http.StatusOK, ImpactResponse{
		File:             rep.File,
		Tables:           page(rep.Tables, 0, 0),
		FieldJoins:       page(rep.FieldJoins, 0, 0),
		CalculatedFields: page(rep.CalculatedFields, 0, 0),
		LayoutFields:     page(rep.LayoutFields, 0, 0),
		ScriptFields:     page(rep.ScriptFields, 0, 0),
	})
}

// page slices t's rows to [offset, offset+limit); limit 0 means the rest.
func page(t *catalog.Table, offset, limit int) *TableResponse {
	cols := make([]ColumnInfo, len(t.Columns()))
	for i, c := range t.Columns() {
		cols[i] = ColumnInfo{Name: c.Name, Type: c.Type.String(), Nullable: c.Nullable}
	}

	rows := t.Rows()
	start := min(offset, len(rows))
	end := len(rows)
	if limit > 0 {
		end = min(start+limit, len(rows))
	}
	out := rows[start:end]
	if out == nil {
		out = [][]any{}
	}

	return &TableResponse{
		Name:    t.Name(),
		Columns: cols,
		Rows:    out,
		Total:   len(rows),
		Offset:  start,
	}
}

type paramError struct{ name, value string }

func (e *paramError) Error() string {
	return "invalid " + e.name + ": " + strconv.Quote(e.value)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &paramError{name: name, value: v}
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: middleware.GetReqID(r.Context())})
}
