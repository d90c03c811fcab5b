package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "patSECRETKEY123"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: testAPIKey, BaseID: "appBase", BaseURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseID: "appBase"}, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{APIKey: testAPIKey}, zerolog.Nop())
	require.Error(t, err)
}

func TestListRecordsFollowsOffsetsAndSendsQuery(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/appBase/Attendance Log", r.URL.Path)
		require.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))

		query := r.URL.Query()
		require.Equal(t, "Grid view", query.Get("view"))
		require.Equal(t, "{Name}='x'", query.Get("filterByFormula"))
		require.Equal(t, "Date", query.Get("sort[0][field]"))
		require.Equal(t, "desc", query.Get("sort[0][direction]"))

		w.Header().Set("Content-Type", "application/json")
		switch query.Get("offset") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"records": []map[string]any{{"id": "rec1", "fields": map[string]any{"Name": "a"}}},
				"offset":  "page2",
			})
		case "page2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"records": []map[string]any{{"id": "rec2", "fields": map[string]any{"Name": "b"}}},
			})
		default:
			t.Fatalf("unexpected offset %q", query.Get("offset"))
		}
	})

	records, err := client.ListRecords(context.Background(), "Attendance Log", ListOptions{
		View:            "Grid view",
		FilterByFormula: "{Name}='x'",
		Sort:            []Sort{{Field: "Date", Direction: Descending}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, records, 2)
	require.Equal(t, "rec1", records[0].ID)
	require.Equal(t, "rec2", records[1].ID)
}

func TestListRecordsReturnsAPIErrorWithoutCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"The formula is invalid"}}`))
	})

	_, err := client.ListRecords(context.Background(), "Students", ListOptions{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, "INVALID_FILTER_BY_FORMULA", apiErr.Type)
	require.Equal(t, "The formula is invalid", apiErr.Message)
	require.False(t, apiErr.Temporary())
	require.NotContains(t, err.Error(), testAPIKey)
}

func TestListRecordsParsesStringErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NOT_FOUND"}`))
	})

	_, err := client.ListRecords(context.Background(), "Missing", ListOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "NOT_FOUND", apiErr.Type)
	require.Equal(t, "Not Found", apiErr.Message)
}

func TestListRecordsTransportErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: testAPIKey, BaseID: "appBase", BaseURL: server.URL, Timeout: 20 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.ListRecords(context.Background(), "Students", ListOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Zero(t, apiErr.StatusCode)
	require.True(t, apiErr.Temporary())
	require.NotContains(t, err.Error(), server.URL)
	require.NotContains(t, err.Error(), testAPIKey)
}

func TestRecordText(t *testing.T) {
	record := Record{Fields: map[string]any{
		"string": "On Time",
		"number": json.Number("1042"),
		"lookup": []any{"Sept 2025 - Advanced Backend", "FE"},
		"empty":  "",
		"null":   nil,
	}}

	value, ok := record.Text("string")
	require.True(t, ok)
	require.Equal(t, "On Time", value)

	value, ok = record.Text("number")
	require.True(t, ok)
	require.Equal(t, "1042", value)

	value, ok = record.Text("lookup")
	require.True(t, ok)
	require.Equal(t, "Sept 2025 - Advanced Backend, FE", value)

	for _, field := range []string{"empty", "null", "missing"} {
		_, ok = record.Text(field)
		require.False(t, ok, field)
	}
}

func TestEscapeFormulaString(t *testing.T) {
	require.Equal(t, `O\'Brien`, EscapeFormulaString("O'Brien"))
	require.Equal(t, `back\\slash\'`, EscapeFormulaString(`back\slash'`))
}
