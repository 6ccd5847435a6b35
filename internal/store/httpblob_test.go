package store

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPBlobStore_Upload(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	blob := NewHTTPBlobStore(srv.URL+"/", "secret")
	url, err := blob.Upload("voice-messages", "m1.m4a", []byte("clip-bytes"), "audio/mp4")

	assert.NoError(t, err)
	assert.Equal(t, "/object/voice-messages/m1.m4a", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "audio/mp4", gotContentType)
	assert.Equal(t, []byte("clip-bytes"), gotBody)
	assert.Equal(t, srv.URL+"/object/public/voice-messages/m1.m4a", url)
}

func TestHTTPBlobStore_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer srv.Close()

	blob := NewHTTPBlobStore(srv.URL, "")
	_, err := blob.Upload("missing", "m1.m4a", []byte("x"), "audio/mp4")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
