package covers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style object requests the store makes.
type fakeS3 struct {
	mu   sync.Mutex
	objs map[string][]byte
	ct   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objs: make(map[string][]byte), ct: make(map[string]string)}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Path style: /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	respond := func(status int, body []byte, h http.Header) (*http.Response, error) {
		if h == nil {
			h = http.Header{}
		}
		return &http.Response{
			StatusCode:    status,
			Body:          io.NopCloser(bytes.NewReader(body)),
			Header:        h,
			ContentLength: int64(len(body)),
			Request:       req,
		}, nil
	}
	objectHeader := func(k string) http.Header {
		return http.Header{
			"Content-Length": {fmt.Sprint(len(f.objs[k]))},
			"Content-Type":   {f.ct[k]},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
			"Etag":           {`"etag"`},
		}
	}
	notFound := []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objs[key] = body
		f.ct[key] = req.Header.Get("Content-Type")
		return respond(http.StatusOK, nil, http.Header{"Etag": {`"etag"`}})
	case http.MethodHead:
		if _, ok := f.objs[key]; !ok {
			return respond(http.StatusNotFound, nil, nil)
		}
		h := objectHeader(key)
		resp, _ := respond(http.StatusOK, nil, h)
		resp.ContentLength = int64(len(f.objs[key]))
		return resp, nil
	case http.MethodGet:
		if _, ok := f.objs[key]; !ok {
			return respond(http.StatusNotFound, notFound, http.Header{"Content-Type": {"application/xml"}})
		}
		return respond(http.StatusOK, f.objs[key], objectHeader(key))
	case http.MethodDelete:
		delete(f.objs, key)
		return respond(http.StatusNoContent, nil, nil)
	}
	return respond(http.StatusNotImplemented, nil, nil)
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	s, err := NewS3(context.Background(), S3Config{
		Bucket:          "biblioteca",
		Region:          "us-east-1",
		Endpoint:        "https://s3.test.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		o.RetryMaxAttempts = 1
	})
	require.NoError(t, err)

	exerciseStore(t, s)
}
