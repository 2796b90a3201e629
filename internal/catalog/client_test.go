package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchMetadataSendsFixedParameters(t *testing.T) {
	params := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params <- map[string]string{
			"token":        q.Get("token"),
			"search":       q.Get("search"),
			"field":        q.Get("field"),
			"selectFields": q.Get("selectFields"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "Брат",
			"poster": {"url": "https://img/brat.jpg"},
			"rating": {"kp": 8.3, "imdb": 7.9},
			"description": "Демобилизовавшись,\u00a0Данила Багров...",
			"watchability": {"items": [{"name": "Okko", "url": "https://okko.tv/movie/brat"}]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/movie", "secret", 1, nil)
	md, err := c.FetchMetadata(context.Background(), "41519")
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	got := <-params
	want := map[string]string{
		"token":        "secret",
		"search":       "41519",
		"field":        "id",
		"selectFields": "name poster rating description watchability",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}

	if md.Title() != "Брат" {
		t.Fatalf("unexpected name %q", md.Title())
	}
	if md.Rating == nil || md.Rating.KP == nil || *md.Rating.KP != 8.3 {
		t.Fatalf("unexpected rating %+v", md.Rating)
	}
	if links := md.WatchLinks(); len(links) != 1 || links[0].Name != "Okko" {
		t.Fatalf("unexpected watch links %+v", links)
	}
}

func TestFetchMetadataPassesErrorPayloadThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"statusCode":401,"message":"invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "bad", 1, nil)
	md, err := c.FetchMetadata(context.Background(), "1")
	if err != nil {
		t.Fatalf("expected error payload to be passed through, got %v", err)
	}
	if len(md.MissingFields()) == 0 {
		t.Fatal("expected error payload to lack renderable fields")
	}
}

func TestFetchMetadataMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>rate limited</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "t", 1, nil)
	_, err := c.FetchMetadata(context.Background(), "1")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestFetchMetadataNetworkErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	apiURL := srv.URL
	srv.Close()

	c := NewClient(srv.Client(), apiURL, "super-secret", 1, nil)
	_, err := c.FetchMetadata(context.Background(), "41519")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Fatalf("error leaks the token: %v", err)
	}
}
