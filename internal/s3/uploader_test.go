package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"po-bridge-api-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	u := &Uploader{Bucket: "files", Region: "ap-northeast-2"}
	assert.Equal(t, "https://files.s3.ap-northeast-2.amazonaws.com/coa/acme/L1.pdf", u.ObjectURL("coa/acme/L1.pdf"))

	u.Endpoint = "http://localhost:9000"
	assert.Equal(t, "http://localhost:9000/files/coa/acme/L1.pdf", u.ObjectURL("coa/acme/L1.pdf"))

	u.CloudFrontDomain = "cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/coa/%EB%8C%80%ED%95%9C/L%201.pdf", u.ObjectURL("coa/대한/L 1.pdf"))
}

func TestPutSendsObjectToEndpoint(t *testing.T) {
	var (
		gotMethod, gotPath, gotType string
		gotBody                     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := NewUploader(context.Background(), config.S3Config{
		Bucket:          "files",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 test")
	url, err := u.Put(context.Background(), "coa/acme/L1.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/files/coa/acme/L1.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotType)
	assert.Contains(t, string(gotBody), "%PDF-1.4 test")
	assert.Equal(t, srv.URL+"/files/coa/acme/L1.pdf", url)
}

func TestPutReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer srv.Close()

	u, err := NewUploader(context.Background(), config.S3Config{
		Bucket: "files", Region: "us-east-1", AccessKeyID: "test", SecretAccessKey: "test",
		Endpoint: srv.URL, UsePathStyle: true,
	})
	require.NoError(t, err)

	_, err = u.Put(context.Background(), "k", bytes.NewReader([]byte("x")), 1, "application/pdf")
	assert.Error(t, err)
}
