package cache

import (
	"context"
	"testing"
	"time"
)

func TestChannelNames_NilClientAlwaysMisses(t *testing.T) {
	c := NewChannelNames(nil, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "T123", "C1", "# general")

	if name, ok := c.Get(ctx, "T123", "C1"); ok {
		t.Errorf("Get with nil client = (%q, true), want miss", name)
	}
}

func TestKey(t *testing.T) {
	got := key("T123", "C1")
	want := "channel_name:T123:C1"
	if got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}
