package s3

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// fakeBucket is an in-memory stand-in for the S3 wire protocol covering the
// two calls the store makes. Requests are path-style: /<bucket>/<key>.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: make(map[string][]byte)} }

func (f *fakeBucket) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return respond(http.StatusForbidden, "<Error><Code>AccessDenied</Code><Message>denied</Message></Error>"), nil
	}
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeChunked(body)
		}
		f.objects[key] = body
		resp := respond(http.StatusOK, "")
		resp.Header.Set("ETag", `"etag"`)
		return resp, nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, "<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>"), nil
		}
		resp := respond(http.StatusOK, string(body))
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
	return respond(http.StatusNotImplemented, ""), nil
}

func respond(status int, body string) *http.Response {
	h := http.Header{}
	if strings.HasPrefix(body, "<") {
		h.Set("Content-Type", "application/xml")
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// decodeChunked strips aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0\r\n.
func decodeChunked(b []byte) []byte {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return out.Bytes()
		}
		size, err := strconv.ParseInt(strings.TrimSpace(strings.SplitN(line, ";", 2)[0]), 16, 64)
		if err != nil || size == 0 {
			return out.Bytes()
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return out.Bytes()
		}
		_, _ = r.ReadString('\n')
	}
}
