// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package eventbus

import (
	"log"
	"sync"
)

// Topic fans one event type out to all of its subscribers.
type Topic[T any] struct {
	name   string
	logger *log.Logger

	subscribers      []subscriber[T]
	subscribersMutex sync.RWMutex
}

type subscriber[T any] struct {
	identifier string
	channel    chan T

	// doneChannel, if set, makes Publish wait for the subscriber to
	// signal completion of each event before moving on.
	doneChannel <-chan struct{}
}

func NewTopic[T any](name string, logger *log.Logger) *Topic[T] {
	return &Topic[T]{
		name:   name,
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns the channel its
// events arrive on. A non-nil doneChannel turns the subscription into a
// synchronous one: Publish blocks until the subscriber signals on it.
func (t *Topic[T]) Subscribe(identifier string, doneChannel <-chan struct{}) <-chan T {
	t.subscribersMutex.Lock()
	defer t.subscribersMutex.Unlock()

	channel := make(chan T, ChannelSize)
	t.subscribers = append(t.subscribers, subscriber[T]{
		identifier:  identifier,
		channel:     channel,
		doneChannel: doneChannel,
	})
	return channel
}

// Publish delivers e to all subscribers in subscription order.
func (t *Topic[T]) Publish(e T) {
	t.subscribersMutex.RLock()
	defer t.subscribersMutex.RUnlock()

	for _, sub := range t.subscribers {
		t.logger.Printf("bus: %s -> %q", t.name, sub.identifier)
		sub.channel <- e

		if sub.doneChannel != nil {
			<-sub.doneChannel
		}
	}
}
