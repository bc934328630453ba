package parser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSendsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/parse-invoice", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, _ := io.ReadAll(file)

		assert.Equal(t, "receipt.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "png-bytes", string(body))
		assert.Equal(t, "receipt", r.FormValue("document_type"))
		assert.JSONEq(t, `[{"field":"tip","description":"gratuity"}]`, r.FormValue("custom_fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"total":12.5,"vendor":"Cafe"},"message":"Parsed successfully"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	res, err := client.Parse(context.Background(), ParseRequest{
		FileName:     "receipt.png",
		MediaType:    "image/png",
		DocumentType: "receipt",
		CustomFields: json.RawMessage(`[{"field":"tip","description":"gratuity"}]`),
		Body:         strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.JSONEq(t, `{"total":12.5,"vendor":"Cafe"}`, string(res.Data))
}

func TestParseOmitsEmptyCustomFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["custom_fields"]
		assert.False(t, present)
		assert.Equal(t, "invoice", r.FormValue("document_type"))
		_, _ = w.Write([]byte(`{"success":false,"error":"unreadable"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Parse(context.Background(), ParseRequest{
		FileName:     "a.pdf",
		MediaType:    "application/pdf",
		DocumentType: "invoice",
		Body:         strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "unreadable", res.Error)
}

func TestParseNon2xxReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Parse(context.Background(), ParseRequest{
		FileName: "a.pdf",
		Body:     strings.NewReader("%PDF"),
	})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "Internal Server Error", statusErr.StatusText)
	assert.Contains(t, statusErr.Body, "boom")
}

func TestParseTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Parse(context.Background(), ParseRequest{
		FileName: "a.pdf",
		Body:     strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestHealthReturnsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","model":"llava"}`))
	}))
	defer srv.Close()

	payload, err := NewClient(srv.URL, time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy","model":"llava"}`, string(payload))
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Health(context.Background())
	require.Error(t, err)
}
