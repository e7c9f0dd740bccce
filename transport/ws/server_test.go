package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/docker/h2beam/beam"
)

func TestIsHandshakeError(t *testing.T) {
	if !IsHandshakeError(websocket.HandshakeError("bad request")) {
		t.Fatal("HandshakeError should be recognized")
	}
	if IsHandshakeError(errors.New("some other failure")) {
		t.Fatal("a plain error should not be recognized as a handshake error")
	}
}

func TestServeRejectsNonGetMethod(t *testing.T) {
	u := &Upgrader{Cfg: beam.Config{}}
	handler := Serve(u, nil)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestServeRejectsMissingUpgradeHeaders(t *testing.T) {
	u := &Upgrader{Cfg: beam.Config{}}
	handler := Serve(u, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatal("a GET request without websocket upgrade headers should not succeed")
	}
}
