package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.APIURL != "http://localhost:3000" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SocketURL != "ws://localhost:3000/ws" {
		t.Fatalf("SocketURL = %q", cfg.SocketURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.ExportDir != "." {
		t.Fatalf("ExportDir = %q", cfg.ExportDir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COURIER_API_URL", "https://courier.example.com/")
	t.Setenv("COURIER_HTTP_TIMEOUT", "30")
	t.Setenv("COURIER_EXPORT_DIR", "/tmp/reports")

	cfg := Load()
	if cfg.APIURL != "https://courier.example.com/" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SocketURL != "wss://courier.example.com/ws" {
		t.Fatalf("derived SocketURL = %q", cfg.SocketURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.ExportDir != "/tmp/reports" {
		t.Fatalf("ExportDir = %q", cfg.ExportDir)
	}
}

func TestLoad_ExplicitSocketURL(t *testing.T) {
	t.Setenv("COURIER_SOCKET_URL", "ws://10.0.0.5:9000/realtime")
	if got := Load().SocketURL; got != "ws://10.0.0.5:9000/realtime" {
		t.Fatalf("SocketURL = %q", got)
	}
}

func TestLoad_BadTimeoutFallsBack(t *testing.T) {
	t.Setenv("COURIER_HTTP_TIMEOUT", "soon")
	if got := Load().HTTPTimeout; got != 15*time.Second {
		t.Fatalf("HTTPTimeout = %v", got)
	}
}
