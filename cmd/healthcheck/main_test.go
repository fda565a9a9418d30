package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://127.0.0.1:8080/api/v1/health"},
		{"garbage", "http://127.0.0.1:8080/api/v1/health"},
		{"0.0.0.0:9000", "http://127.0.0.1:9000/api/v1/health"},
		{":9000", "http://127.0.0.1:9000/api/v1/health"},
		{"[::]:9000", "http://[::1]:9000/api/v1/health"},
		{"10.0.0.5:8081", "http://10.0.0.5:8081/api/v1/health"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, healthURL(tt.in))
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok","time":"2026-01-01T00:00:00Z"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"status":"ok"}`, wantErr: true},
		{name: "degraded", status: http.StatusOK, body: `{"status":"degraded"}`, wantErr: true},
		{name: "not json", status: http.StatusOK, body: `ok`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := probe(srv.URL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
