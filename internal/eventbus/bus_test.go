// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestTopic_publish(t *testing.T) {
	bus := NewEventBus()
	events := bus.OnDidChange("test", nil)

	bus.DidChange(DidChangeEvent{
		Context: context.Background(),
		Path:    "foo",
		Version: 3,
	})

	select {
	case e := <-events:
		if e.Path != "foo" || e.Version != 3 {
			t.Fatalf("unexpected event: %#v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestTopic_synchronousSubscriber(t *testing.T) {
	bus := NewEventBus()

	done := make(chan struct{}, 1)
	events := bus.OnDidSave("test", done)

	handled := make(chan string, 1)
	go func() {
		e := <-events
		handled <- e.Path
		done <- struct{}{}
	}()

	// Publish must block until the subscriber signals completion
	bus.DidSave(DidSaveEvent{
		Context: context.Background(),
		Path:    "foo",
	})

	select {
	case path := <-handled:
		if path != "foo" {
			t.Fatalf("unexpected path: %q", path)
		}
	default:
		t.Fatal("expected event to be handled before publish returned")
	}
}
