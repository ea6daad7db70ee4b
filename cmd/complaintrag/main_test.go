package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReloadOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal)
	var calls atomic.Int32
	reload := func() error {
		if calls.Add(1) == 1 {
			return errors.New("index not found")
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		reloadOnSignal(ctx, sig, reload, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	sig <- syscall.SIGHUP
	sig <- syscall.SIGHUP
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload loop did not stop after cancel")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("  short ", 10))
	assert.Equal(t, "ab...", preview("abcdef", 2))
}
