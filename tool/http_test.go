package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTool_Name(t *testing.T) {
	tool := NewHTTPTool("http_request")
	if tool.Name() != "http_request" {
		t.Fatalf("Name() = %q, want %q", tool.Name(), "http_request")
	}
}

func TestHTTPTool_GETSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "success"})
	}))
	defer server.Close()

	tool := NewHTTPTool("http_request")
	result, err := tool.Call(context.Background(), map[string]interface{}{"url": server.URL})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if result["status_code"] != 200 {
		t.Fatalf("status_code = %v, want 200", result["status_code"])
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(result["body"].(string)), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["message"] != "success" {
		t.Fatalf("body message = %q, want %q", body["message"], "success")
	}
}

func TestHTTPTool_POSTWithBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token123" {
			t.Errorf("Authorization header = %q, want %q", auth, "Bearer token123")
		}
		var reqBody map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody["name"] != "test" {
			t.Errorf("request body name = %v, want %q", reqBody["name"], "test")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tool := NewHTTPTool("http_request")
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"method":  "POST",
		"url":     server.URL,
		"body":    `{"name":"test"}`,
		"headers": map[string]interface{}{"Authorization": "Bearer token123"},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["status_code"] != 201 {
		t.Fatalf("status_code = %v, want 201", result["status_code"])
	}
}

func TestHTTPTool_MissingURL(t *testing.T) {
	tool := NewHTTPTool("http_request")
	_, err := tool.Call(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected an error when url is missing")
	}
}

func TestHTTPTool_UnsupportedMethod(t *testing.T) {
	tool := NewHTTPTool("http_request")
	_, err := tool.Call(context.Background(), map[string]interface{}{
		"method": "DELETE",
		"url":    "http://example.invalid",
	})
	if err == nil {
		t.Fatal("expected an error for an unsupported method")
	}
}

func TestHTTPTool_DefaultsToGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected default method GET, got %s", r.Method)
		}
	}))
	defer server.Close()

	tool := NewHTTPTool("http_request")
	if _, err := tool.Call(context.Background(), map[string]interface{}{"url": server.URL}); err != nil {
		t.Fatalf("Call: %v", err)
	}
}
