package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/mdstruct/internal/doctree"
)

func TestPutDocument(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	var got Delivery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret")
	defer c.Close()

	err := c.PutDocument(context.Background(), "doc-1", Delivery{
		Filename: "a.md",
		Title:    "A",
		Tree:     doctree.NewContainer(doctree.KindContainer),
		Chunks:   []doctree.Chunk{{Text: "x", Index: 0}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/documents/doc-1" {
		t.Errorf("expected path /documents/doc-1, got %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if got.Title != "A" || len(got.Chunks) != 1 || got.Tree == nil {
		t.Errorf("unexpected delivery %+v", got)
	}
}

func TestPutDocument_Errors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		c := NewClient(srv.URL, "k")
		err := c.PutDocument(context.Background(), "d", Delivery{})
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		var re *RetryableError
		if errors.As(err, &re) != tt.retryable {
			t.Errorf("status %d: retryable=%v, err=%v", tt.status, !tt.retryable, err)
		}
		if tt.retryable && re.StatusCode != tt.status {
			t.Errorf("expected status %d, got %d", tt.status, re.StatusCode)
		}
	}
}

func TestDeleteDocument(t *testing.T) {
	status := http.StatusNoContent
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if err := c.DeleteDocument(context.Background(), "doc-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/documents/doc-2" {
		t.Errorf("unexpected path %s", gotPath)
	}

	status = http.StatusNotFound
	if err := c.DeleteDocument(context.Background(), "doc-2"); err != nil {
		t.Errorf("missing document should not fail: %v", err)
	}

	status = http.StatusForbidden
	if err := c.DeleteDocument(context.Background(), "doc-2"); err == nil {
		t.Error("expected error on 403")
	}
}

func TestRetryableErrorTruncates(t *testing.T) {
	e := &RetryableError{StatusCode: 503, Message: strings.Repeat("x", 500)}
	if len(e.Error()) > 260 {
		t.Errorf("expected truncated message, got %d chars", len(e.Error()))
	}
}
