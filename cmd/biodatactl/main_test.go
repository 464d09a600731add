package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", srv.URL, "--admin-key", "k"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-admin-key"))
		w.Write([]byte(`{"success":true,"message":"Successfully synced biodata to the search index","totalSynced":3,"total":3,"collectionCreated":true}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "sync")
	require.NoError(t, err)
	assert.Equal(t, "Successfully synced biodata to the search index: 3/3 indexed, collection created\n", out)
}

func TestSyncCommandReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_code":"unauthorized","message":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestExportCommandWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", "attachment; filename=biodata_export_x.xlsx")
		w.Header().Set("X-Record-Count", "2")
		w.Write([]byte("xlsx-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	out, err := run(t, srv, "export", "-o", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "biodata_export_x.xlsx")
	assert.Contains(t, out, "wrote 2 profiles to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))
}
