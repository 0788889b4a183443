package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSendsFileField(t *testing.T) {
	var gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "crowd.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	var out bytes.Buffer
	cmd := newCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--server", srv.URL, "upload", path})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "crowd.jpg", gotName)
	assert.Equal(t, "jpeg", string(gotBody))
	assert.Contains(t, out.String(), `"success":true`)
}

func TestSiteUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/sites/2", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"count":650}`, string(body))
		w.Write([]byte(`{"success":true,"status":"High"}`))
	}))
	defer srv.Close()

	cmd := newCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--server", srv.URL, "site", "2", "650"})
	require.NoError(t, cmd.Execute())
}

func TestErrorStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cmd := newCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--server", srv.URL, "health"})
	assert.Error(t, cmd.Execute())
}
