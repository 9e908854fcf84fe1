package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = "<html><body>Users</body></html>"

func TestGzipResponse(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, page)
		case "/redirect":
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		}
	}))

	type tTestCase struct {
		name           string
		path           string
		acceptEncoding string
		wantStatus     int
		wantGzip       bool
	}
	testCases := []tTestCase{
		{name: "compressed page", path: "/page", acceptEncoding: "gzip, deflate", wantStatus: http.StatusOK, wantGzip: true},
		{name: "plain page", path: "/page", wantStatus: http.StatusOK},
		{name: "redirect left alone", path: "/redirect", acceptEncoding: "gzip", wantStatus: http.StatusSeeOther},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, testCase.path, nil)
			if testCase.acceptEncoding != "" {
				request.Header.Set("Accept-Encoding", testCase.acceptEncoding)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, request)

			assert.Equal(t, testCase.wantStatus, w.Code)
			if !testCase.wantGzip {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
				return
			}

			assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
			zr, err := gzip.NewReader(w.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, page, string(body))
		})
	}
}
