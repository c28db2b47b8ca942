package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"riskwatch/src/model"
)

func TestHubBroadcastDeliversToClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &wsClient{hub: h, send: make(chan []byte, 4)}
	h.register <- c

	h.BroadcastCycle(model.LedgerEntry{CycleID: "c1"})

	select {
	case msg := <-c.send:
		require.Contains(t, string(msg), "c1")
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubShutdownUnblocksRemove(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := &wsClient{hub: h, send: make(chan []byte, 1)}
	h.register <- c

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// A read pump detaching after shutdown must not hang on the hub.
	finished := make(chan struct{})
	go func() {
		h.remove(c)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("remove blocked after hub shutdown")
	}
}
