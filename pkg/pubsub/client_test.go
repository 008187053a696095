package pubsub

import (
	"context"
	"testing"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "shop-prod"}

	tests := map[string]string{
		"order-events":     "projects/shop-prod/topics/order-events",
		"  order-events  ": "projects/shop-prod/topics/order-events",
		"projects/other/topics/already-qualified": "projects/other/topics/already-qualified",
		"": "",
	}
	for input, want := range tests {
		if got := c.topicResourceName(input); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", input, got, want)
		}
	}

	if got := (&Client{}).topicResourceName("order-events"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("order-events") != nil {
		t.Fatal("expected nil publisher from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error from nil client")
	}
}
