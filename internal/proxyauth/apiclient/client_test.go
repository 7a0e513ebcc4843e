package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateBearerForSandbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/sandboxes/sbx1/validate-bearer" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	valid, err := c.ValidateBearerForSandbox(context.Background(), "sbx1", "some-bearer")
	if err != nil {
		t.Fatalf("ValidateBearerForSandbox() error = %v", err)
	}
	if !valid {
		t.Fatal("expected valid=true")
	}
}

func TestValidateBearerForSandboxPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("unauthorized"))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	_, err := c.ValidateBearerForSandbox(context.Background(), "sbx1", "some-bearer")
	if err == nil {
		t.Fatal("expected an error on a non-2xx response")
	}
}

func TestExchangeSignedPreviewToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("port") != "3000" {
			t.Errorf("expected port query param 3000, got %q", r.URL.Query().Get("port"))
		}
		w.Write([]byte(`{"sandboxId":"sbx1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	sandboxID, err := c.ExchangeSignedPreviewToken(context.Background(), "signed-token", 3000)
	if err != nil {
		t.Fatalf("ExchangeSignedPreviewToken() error = %v", err)
	}
	if sandboxID != "sbx1" {
		t.Fatalf("sandboxID = %q, want sbx1", sandboxID)
	}
}

func TestResolveRunnerDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"domain":"runner-1.internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	domain, err := c.ResolveRunnerDomain(context.Background(), "sbx1")
	if err != nil {
		t.Fatalf("ResolveRunnerDomain() error = %v", err)
	}
	if domain != "runner-1.internal" {
		t.Fatalf("domain = %q, want runner-1.internal", domain)
	}
}

func TestGetAuthUrl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"https://auth.example.com/login"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	authURL, err := c.GetAuthUrl(context.Background(), "sbx1")
	if err != nil {
		t.Fatalf("GetAuthUrl() error = %v", err)
	}
	if authURL != "https://auth.example.com/login" {
		t.Fatalf("authURL = %q, want https://auth.example.com/login", authURL)
	}
}
