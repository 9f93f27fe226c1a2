// Package agent wires channels, memory, and the provider into the
// message-handling loop.
package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rcliao/sidekick/internal/channel"
	"github.com/rcliao/sidekick/internal/memory"
	"github.com/rcliao/sidekick/internal/model"
	"github.com/rcliao/sidekick/internal/provider"
)

// sinkCapacity bounds the shared message queue. When it is full, every
// polling loop suspends until the dispatcher catches up.
const sinkCapacity = 32

// Dispatcher consumes the shared message sink and answers through the
// originating channel. The store is the only resource shared across
// listeners; channels share no mutable state with each other.
type Dispatcher struct {
	Store       memory.Store
	Provider    provider.Provider
	Channels    []channel.Channel
	Model       string
	Temperature float64
	AutoSave    bool
}

// Run starts one listener per channel and handles messages until ctx
// is canceled. A listener's setup failure stops that channel only.
func (d *Dispatcher) Run(ctx context.Context) error {
	sink := make(chan model.ChannelMessage, sinkCapacity)

	byName := make(map[string]channel.Channel, len(d.Channels))
	var wg sync.WaitGroup
	for _, ch := range d.Channels {
		byName[ch.Name()] = ch
		wg.Add(1)
		go func(c channel.Channel) {
			defer wg.Done()
			if err := c.Listen(ctx, sink); err != nil {
				slog.Error("channel listener stopped", "channel", c.Name(), "error", err)
			}
		}(ch)
	}
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-sink:
			d.handle(ctx, msg, byName[msg.Channel])
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg model.ChannelMessage, src channel.Channel) {
	slog.Info("message received", "channel", msg.Channel, "sender", msg.Sender)

	if d.AutoSave {
		key := msg.Channel + "_msg"
		if err := d.Store.Store(ctx, key, msg.Content, model.CategoryConversation); err != nil {
			slog.Warn("auto-save failed", "error", err)
		}
	}

	reply, err := d.Provider.Chat(ctx, msg.Content, d.Model, d.Temperature)
	if err != nil {
		slog.Error("provider error", "channel", msg.Channel, "error", err)
		return
	}

	if src == nil {
		slog.Warn("no channel to reply on", "channel", msg.Channel)
		return
	}
	if err := src.Send(ctx, reply, msg.Sender); err != nil {
		slog.Error("send failed", "channel", msg.Channel, "error", err)
	}
}
