package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, compressed []byte) string {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(zr)
	require.NoError(t, err)

	return string(decompressed)
}

func TestCompressResponse(t *testing.T) {
	handler := CompressResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		response.WriteHeader(http.StatusConflict)
		_, _ = response.Write([]byte(`{"error":"record already exists"}`))
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Accept-Encoding", "gzip")
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"),
		"the gzip label must not depend on the status code")
	assert.Equal(t, `{"error":"record already exists"}`, gunzip(t, recorder.Body.Bytes()))
}

func TestCompressResponseSkippedWithoutAcceptEncoding(t *testing.T) {
	handler := CompressResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		_, _ = response.Write([]byte("plain"))
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, recorder.Header().Get("Content-Encoding"))
	assert.Equal(t, "plain", recorder.Body.String())
}

func TestDecompressRequest(t *testing.T) {
	var seenBody []byte
	handler := DecompressRequest(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		seenBody = body
	}))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"original_url":"https://example.com"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/", &buf)
	request.Header.Set("Content-Encoding", "gzip")
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, `{"original_url":"https://example.com"}`, string(seenBody))
}

func TestDecompressRequestRejectsCorruptBody(t *testing.T) {
	handler := DecompressRequest(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		t.Fatal("the handler must not run for a corrupt gzip body")
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not gzip")))
	request.Header.Set("Content-Encoding", "gzip")
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
