// Package gzippedhttp compresses console pages for clients that accept gzip.
package gzippedhttp

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"
)

// CompressedHTTPResponseWriter gzips the body of successful responses. The
// decision is taken when the status is known, so redirects and errors go
// out untouched.
type CompressedHTTPResponseWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

// NewCompressedHTTPResponseWriter wraps w. Close must be called once the
// handler is done.
func NewCompressedHTTPResponseWriter(w http.ResponseWriter) *CompressedHTTPResponseWriter {
	return &CompressedHTTPResponseWriter{ResponseWriter: w}
}

// WriteHeader switches to gzip for 2xx responses carrying a body, unless the
// handler already encoded the body itself.
func (c *CompressedHTTPResponseWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	header := c.Header()
	if statusCode >= 200 && statusCode < 300 && statusCode != http.StatusNoContent &&
		header.Get("Content-Encoding") == "" {
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")

		c.zw = gzipWriterPool.Get().(*gzip.Writer)
		c.zw.Reset(c.ResponseWriter)
	}

	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *CompressedHTTPResponseWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.zw == nil {
		return c.ResponseWriter.Write(p)
	}

	return c.zw.Write(p)
}

// Close flushes the gzip stream, if one was started.
func (c *CompressedHTTPResponseWriter) Close() error {
	if c.zw == nil {
		return nil
	}

	err := c.zw.Close()
	gzipWriterPool.Put(c.zw)
	c.zw = nil

	return err
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// GzipResponse is the middleware that compresses responses for clients
// whose Accept-Encoding allows gzip.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		responseWithCompression := NewCompressedHTTPResponseWriter(response)
		defer responseWithCompression.Close()

		h.ServeHTTP(responseWithCompression, request)
	}

	return http.HandlerFunc(middleware)
}
