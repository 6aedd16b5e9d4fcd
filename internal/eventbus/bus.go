// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package eventbus distributes store events to interested subsystems,
// e.g. analysis passes which re-run after a buffer commits an edit.
package eventbus

import (
	"context"
	"io"
	"log"
)

const ChannelSize = 10

type EventBus struct {
	logger *log.Logger

	didChangeTopic *Topic[DidChangeEvent]
	didSaveTopic   *Topic[DidSaveEvent]
}

func NewEventBus() *EventBus {
	discardLogger := log.New(io.Discard, "", 0)
	return &EventBus{
		logger:         discardLogger,
		didChangeTopic: NewTopic[DidChangeEvent]("DidChange", discardLogger),
		didSaveTopic:   NewTopic[DidSaveEvent]("DidSave", discardLogger),
	}
}

func (eb *EventBus) SetLogger(logger *log.Logger) {
	eb.logger = logger
	eb.didChangeTopic.logger = logger
	eb.didSaveTopic.logger = logger
}

// DidChangeEvent is published after a versioned change batch committed
// to the document store.
type DidChangeEvent struct {
	Context context.Context

	Path    string
	Version uint64
}

func (eb *EventBus) OnDidChange(identifier string, doneChannel <-chan struct{}) <-chan DidChangeEvent {
	eb.logger.Printf("bus: %q subscribed to DidChange", identifier)
	return eb.didChangeTopic.Subscribe(identifier, doneChannel)
}

func (eb *EventBus) DidChange(e DidChangeEvent) {
	eb.logger.Printf("bus: -> DidChange %s@%d", e.Path, e.Version)
	eb.didChangeTopic.Publish(e)
}

// DidSaveEvent is published after a buffer was committed to disk and
// evicted.
type DidSaveEvent struct {
	Context context.Context

	Path string
}

func (eb *EventBus) OnDidSave(identifier string, doneChannel <-chan struct{}) <-chan DidSaveEvent {
	eb.logger.Printf("bus: %q subscribed to DidSave", identifier)
	return eb.didSaveTopic.Subscribe(identifier, doneChannel)
}

func (eb *EventBus) DidSave(e DidSaveEvent) {
	eb.logger.Printf("bus: -> DidSave %s", e.Path)
	eb.didSaveTopic.Publish(e)
}
