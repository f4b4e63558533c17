// Package gzippedhttp carries the transparent gzip support of the HTTP
// surface: responses are compressed for clients that accept gzip, and
// gzip-encoded request bodies are decompressed before the handlers see
// them.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var writerPool = sync.Pool{
	New: func() interface{} {
		zw, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return zw
	},
}

type compressedResponseWriter struct {
	response http.ResponseWriter
	zw       *gzip.Writer
}

// newCompressedResponseWriter labels the response as gzip right away:
// every body byte goes through the gzip writer regardless of the status
// code, so the label must not depend on it either.
func newCompressedResponseWriter(response http.ResponseWriter) *compressedResponseWriter {
	zw := writerPool.Get().(*gzip.Writer)
	zw.Reset(response)

	response.Header().Set("Content-Encoding", "gzip")

	return &compressedResponseWriter{
		response: response,
		zw:       zw,
	}
}

func (c *compressedResponseWriter) Header() http.Header {
	return c.response.Header()
}

func (c *compressedResponseWriter) WriteHeader(statusCode int) {
	c.response.WriteHeader(statusCode)
}

func (c *compressedResponseWriter) Write(p []byte) (int, error) {
	return c.zw.Write(p)
}

func (c *compressedResponseWriter) close() error {
	if err := c.zw.Close(); err != nil {
		return err
	}
	writerPool.Put(c.zw)

	return nil
}

type decompressedBody struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func newDecompressedBody(body io.ReadCloser) (*decompressedBody, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &decompressedBody{
		body: body,
		zr:   zr,
	}, nil
}

func (d *decompressedBody) Read(p []byte) (int, error) {
	return d.zr.Read(p)
}

func (d *decompressedBody) Close() error {
	if err := d.body.Close(); err != nil {
		return err
	}

	return d.zr.Close()
}

// CompressResponse compresses the response body for clients whose
// Accept-Encoding header names gzip.
func CompressResponse(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		compressed := newCompressedResponseWriter(response)
		defer compressed.close()

		h.ServeHTTP(compressed, request)
	})
}

// DecompressRequest replaces a gzip-encoded request body with a
// decompressing reader before the request reaches the handler.
func DecompressRequest(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			decompressed, err := newDecompressedBody(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusBadRequest)
				return
			}
			defer decompressed.Close()

			request.Body = decompressed
		}

		h.ServeHTTP(response, request)
	})
}
