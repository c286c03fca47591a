package match

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteCoverJPEGBase64(t *testing.T) {
	artwork := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(artwork)
	}))
	defer server.Close()

	cover := NewRemoteCover(WithCoverURL(server.URL))
	got, err := cover.JPEGBase64(context.Background())
	if err != nil {
		t.Fatalf("JPEGBase64() error = %v", err)
	}
	if want := base64.StdEncoding.EncodeToString(artwork); got != want {
		t.Errorf("JPEGBase64() = %q, want %q", got, want)
	}
}

func TestRemoteCoverFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cover := NewRemoteCover(WithCoverURL(server.URL))
	if _, err := cover.JPEGBase64(context.Background()); err == nil {
		t.Error("expected error for missing artwork")
	}
}
