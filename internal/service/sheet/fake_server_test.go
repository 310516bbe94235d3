package sheet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/sheets/v4"
)

// fakeSheets минимальная реализация REST API Google Sheets v4 в памяти.
type fakeSheets struct {
	mu     sync.Mutex
	id     string
	sheets []*fakeSheet
	nextID int64
	fail   map[string]int // вид запроса -> HTTP статус
	calls  map[string]int
}

type fakeSheet struct {
	id     int64
	title  string
	rows   [][]interface{}
	styled bool
}

func newFakeSheets(t *testing.T, spreadsheetID string) (*fakeSheets, *httptest.Server) {
	t.Helper()
	f := &fakeSheets{
		id:     spreadsheetID,
		nextID: 100,
		fail:   map[string]int{},
		calls:  map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSheets) addSheet(title string, rows ...[]interface{}) *fakeSheet {
	f.mu.Lock()
	defer f.mu.Unlock()
	sh := &fakeSheet{id: f.nextID, title: title, rows: rows}
	f.nextID++
	f.sheets = append(f.sheets, sh)
	return sh
}

func (f *fakeSheets) sheet(title string) *fakeSheet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byTitle(title)
}

func (f *fakeSheets) byTitle(title string) *fakeSheet {
	for _, sh := range f.sheets {
		if sh.title == title {
			return sh
		}
	}
	return nil
}

func (f *fakeSheets) byID(id int64) *fakeSheet {
	for _, sh := range f.sheets {
		if sh.id == id {
			return sh
		}
	}
	return nil
}

func (f *fakeSheets) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	prefix := "/v4/spreadsheets/" + f.id
	if !strings.HasPrefix(path, prefix) {
		writeError(w, http.StatusNotFound, "unknown spreadsheet")
		return
	}
	rest := strings.TrimPrefix(path, prefix)

	kind, rng := classify(r.Method, rest)
	if kind == "" {
		writeError(w, http.StatusNotFound, "unknown path "+path)
		return
	}
	f.calls[kind]++
	if status, ok := f.fail[kind]; ok {
		writeError(w, status, "forced failure")
		return
	}

	switch kind {
	case "get":
		f.handleGet(w)
	case "batchUpdate":
		f.handleBatchUpdate(w, r)
	case "append":
		f.handleAppend(w, r, rng)
	case "valuesGet":
		f.handleValuesGet(w, rng)
	case "valuesUpdate":
		f.handleValuesUpdate(w, r, rng)
	}
}

// classify определяет вид запроса и диапазон из пути после ID таблицы.
func classify(method, rest string) (string, string) {
	switch {
	case rest == "" && method == http.MethodGet:
		return "get", ""
	case rest == ":batchUpdate" && method == http.MethodPost:
		return "batchUpdate", ""
	case strings.HasPrefix(rest, "/values/"):
		rng := strings.TrimPrefix(rest, "/values/")
		switch {
		case method == http.MethodPost && strings.HasSuffix(rng, ":append"):
			return "append", strings.TrimSuffix(rng, ":append")
		case method == http.MethodGet:
			return "valuesGet", rng
		case method == http.MethodPut:
			return "valuesUpdate", rng
		}
	}
	return "", ""
}

func (f *fakeSheets) handleGet(w http.ResponseWriter) {
	resp := &sheets.Spreadsheet{SpreadsheetId: f.id}
	for _, sh := range f.sheets {
		resp.Sheets = append(resp.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{SheetId: sh.id, Title: sh.title},
		})
	}
	writeJSON(w, resp)
}

func (f *fakeSheets) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheets.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: f.id}
	for _, q := range req.Requests {
		reply := &sheets.Response{}
		switch {
		case q.AddSheet != nil:
			sh := &fakeSheet{id: f.nextID, title: q.AddSheet.Properties.Title}
			f.nextID++
			f.sheets = append(f.sheets, sh)
			reply.AddSheet = &sheets.AddSheetResponse{
				Properties: &sheets.SheetProperties{SheetId: sh.id, Title: sh.title},
			}
		case q.RepeatCell != nil:
			sh := f.byID(q.RepeatCell.Range.SheetId)
			if sh == nil {
				writeError(w, http.StatusBadRequest, "no sheet for repeatCell")
				return
			}
			sh.styled = true
		case q.DeleteDimension != nil:
			rng := q.DeleteDimension.Range
			sh := f.byID(rng.SheetId)
			if sh == nil || rng.Dimension != "ROWS" {
				writeError(w, http.StatusBadRequest, "bad deleteDimension")
				return
			}
			start, end := int(rng.StartIndex), int(rng.EndIndex)
			if end > len(sh.rows) {
				end = len(sh.rows)
			}
			if start < end {
				sh.rows = append(sh.rows[:start], sh.rows[end:]...)
			}
		}
		resp.Replies = append(resp.Replies, reply)
	}
	writeJSON(w, resp)
}

func (f *fakeSheets) handleValuesGet(w http.ResponseWriter, rng string) {
	sh, from, to, ok := f.resolve(rng)
	if !ok {
		writeError(w, http.StatusBadRequest, "unable to parse range: "+rng)
		return
	}
	resp := &sheets.ValueRange{Range: rng, MajorDimension: "ROWS"}
	var out [][]interface{}
	for i := from - 1; i < len(sh.rows) && (to == 0 || i < to); i++ {
		out = append(out, trimRow(sh.rows[i]))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	resp.Values = out
	writeJSON(w, resp)
}

func (f *fakeSheets) handleValuesUpdate(w http.ResponseWriter, r *http.Request, rng string) {
	sh, from, _, ok := f.resolve(rng)
	if !ok {
		writeError(w, http.StatusBadRequest, "unable to parse range: "+rng)
		return
	}
	var vr sheets.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, row := range vr.Values {
		idx := from - 1 + i
		for len(sh.rows) <= idx {
			sh.rows = append(sh.rows, nil)
		}
		sh.rows[idx] = row
	}
	writeJSON(w, &sheets.UpdateValuesResponse{SpreadsheetId: f.id, UpdatedRange: rng})
}

func (f *fakeSheets) handleAppend(w http.ResponseWriter, r *http.Request, rng string) {
	sh, _, _, ok := f.resolve(rng)
	if !ok {
		writeError(w, http.StatusBadRequest, "unable to parse range: "+rng)
		return
	}
	var vr sheets.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	last := len(sh.rows)
	for last > 0 && len(trimRow(sh.rows[last-1])) == 0 {
		last--
	}
	sh.rows = append(sh.rows[:last], vr.Values...)
	writeJSON(w, &sheets.AppendValuesResponse{SpreadsheetId: f.id})
}

// resolve разбирает "'Лист'!A2:W" в лист и номера строк (to == 0: без ограничения).
func (f *fakeSheets) resolve(rng string) (*fakeSheet, int, int, bool) {
	i := strings.LastIndex(rng, "!")
	if i < 0 {
		return nil, 0, 0, false
	}
	title := rng[:i]
	if strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}
	sh := f.byTitle(title)
	if sh == nil {
		return nil, 0, 0, false
	}
	cells := strings.SplitN(rng[i+1:], ":", 2)
	from := rowNumber(cells[0])
	if from == 0 {
		from = 1
	}
	to := 0
	if len(cells) == 2 {
		to = rowNumber(cells[1])
	}
	return sh, from, to, true
}

func rowNumber(cell string) int {
	digits := strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func trimRow(row []interface{}) []interface{} {
	end := len(row)
	for end > 0 && (row[end-1] == nil || row[end-1] == "") {
		end--
	}
	return row[:end]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": msg},
	})
}
