package recommender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestClientRecommend(t *testing.T) {
	var got Request
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"layout":["ad","daily","quiz"],"reasoning":"ads are popular"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "key-1", time.Second)
	resp, err := c.Recommend(context.Background(), Request{
		Engagement:    map[string]int{"daily": 3, "ad": 1, "quiz": 0},
		CurrentLayout: "The current layout is: daily, ad, quiz.",
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !resp.Success || !reflect.DeepEqual(resp.Layout, []string{"ad", "daily", "quiz"}) {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Reasoning != "ads are popular" {
		t.Errorf("Reasoning = %q", resp.Reasoning)
	}
	if gotAuth != "Bearer key-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got.Engagement["daily"] != 3 || got.CurrentLayout != "The current layout is: daily, ad, quiz." {
		t.Errorf("server received %+v", got)
	}
}

func TestClientFailureAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"model unavailable"}`))
	}))
	t.Cleanup(srv.Close)

	resp, err := NewClient(srv.URL, "", time.Second).Recommend(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Success || resp.Error != "model unavailable" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: "returned 500",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: "failed to decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			_, err := NewClient(srv.URL, "", time.Second).Recommend(context.Background(), Request{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Recommend() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHeuristic(t *testing.T) {
	h := Heuristic{Widgets: []string{"daily", "ad", "quiz"}}

	tests := []struct {
		name   string
		counts map[string]int
		want   []string
	}{
		{"no activity keeps default", map[string]int{}, []string{"daily", "ad", "quiz"}},
		{"most used first", map[string]int{"daily": 1, "ad": 0, "quiz": 4}, []string{"quiz", "daily", "ad"}},
		{"ties keep default order", map[string]int{"daily": 2, "ad": 2, "quiz": 5}, []string{"quiz", "daily", "ad"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Recommend(context.Background(), Request{Engagement: tt.counts})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if !resp.Success {
				t.Fatalf("Success = false: %s", resp.Error)
			}
			if !reflect.DeepEqual(resp.Layout, tt.want) {
				t.Errorf("Layout = %v, want %v", resp.Layout, tt.want)
			}
			if resp.Reasoning == "" {
				t.Error("Reasoning is empty")
			}
		})
	}
}

func TestHeuristicCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Heuristic{Widgets: []string{"daily"}}).Recommend(ctx, Request{}); err == nil {
		t.Fatal("Recommend() on cancelled context succeeded")
	}
}
