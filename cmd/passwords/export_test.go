package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/credential"
	"github.com/noah-isme/student-portal-api/internal/models"
)

func testRows() []models.RosterRow {
	return []models.RosterRow{
		{PreferredName: "Tamara", Name: "S022 - Tamara Jones"},
		{PreferredName: "Jon", Name: "Jonathan", StudentID: "S031"},
		{PreferredName: "Ghost", Name: "No Identifier"},
		{PreferredName: "tamara", Name: "S099 - Tamara Lee"},
	}
}

func TestExportWritesAllStudents(t *testing.T) {
	deriver, err := credential.NewDeriver("unit-test-secret")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := export(&buf, testRows(), deriver, "")
	require.NoError(t, err)
	require.Equal(t, 3, written)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, csvHeader, records[0])
	require.Equal(t, []string{"Tamara", "S022", deriver.Derive("S022")}, records[1])
	require.Equal(t, []string{"Jon", "S031", deriver.Derive("S031")}, records[2])
	require.NotContains(t, buf.String(), "unit-test-secret")
}

func TestExportSingleStudentFirstMatch(t *testing.T) {
	deriver, err := credential.NewDeriver("unit-test-secret")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := export(&buf, testRows(), deriver, " TAMARA ")
	require.NoError(t, err)
	require.Equal(t, 1, written)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "S022", records[1][1])

	_, err = export(io.Discard, testRows(), deriver, "Ghost")
	require.ErrorIs(t, err, errStudentNotFound)
}

func TestRunRequiresSecret(t *testing.T) {
	t.Setenv("PORTAL_PW_SECRET", "")
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "base")

	err := run(context.Background(), nil, io.Discard, zerolog.Nop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "PORTAL_PW_SECRET")
}

func TestRunHelp(t *testing.T) {
	err := run(context.Background(), []string{"-h"}, io.Discard, zerolog.Nop())
	require.True(t, errors.Is(err, flag.ErrHelp))
}

func TestRunExportsFromSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v0/app123/Students", r.URL.Path)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"id":"rec1","fields":{"Preferred Name":"Tamara","Name":"S022 - Tamara Jones"}}]}`))
	}))
	defer server.Close()

	t.Setenv("PORTAL_PW_SECRET", "unit-test-secret")
	t.Setenv("AIRTABLE_API_KEY", "key-123")
	t.Setenv("AIRTABLE_BASE_ID", "app123")
	t.Setenv("AIRTABLE_API_URL", server.URL+"/v0")

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-name", "tamara"}, &buf, zerolog.Nop()))

	deriver, err := credential.NewDeriver("unit-test-secret")
	require.NoError(t, err)
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{csvHeader, {"Tamara", "S022", deriver.Derive("S022")}}, records)
}
