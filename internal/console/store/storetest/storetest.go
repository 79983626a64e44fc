// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/stretchr/testify/require"
)

// Run exercises the store.Store contract against s.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte("v1")))

		got, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte("v1")))
		require.NoError(t, s.Put(ctx, "auth", []byte("v2-longer")))

		got, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		require.Equal(t, []byte("v2-longer"), got)
	})

	t.Run("binary values", func(t *testing.T) {
		value := []byte{0x00, 0xff, 0x10, '\n', 0x00}
		require.NoError(t, s.Put(ctx, "bin", value))

		got, err := s.Get(ctx, "bin")
		require.NoError(t, err)
		require.Equal(t, value, got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "a", []byte("1")))
		require.NoError(t, s.Put(ctx, "b", []byte("2")))
		require.NoError(t, s.Delete(ctx, "a"))

		_, err := s.Get(ctx, "a")
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := s.Get(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), got)
	})

	t.Run("delete missing is fine", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "never-written"))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, s.Put(ctx, "race", fmt.Appendf(nil, "writer-%d", i)))
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "race")
		require.NoError(t, err)
		require.Contains(t, string(got), "writer-")
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}

// RunWatch checks that a change written through writer is reported by w.
// writer and w may be the same store or two handles on the same storage.
func RunWatch(t *testing.T, w store.Watcher, writer store.Store) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Watch(ctx, func(key string) { changed <- key })
	}()

	waitFor := func(key string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case got := <-changed:
				if got == key {
					return
				}
			case err := <-watchErr:
				t.Fatalf("watch stopped early: %v", err)
			case <-deadline:
				t.Fatalf("no change reported for %q", key)
			}
		}
	}

	// Retry the first write until the watch is established.
	require.Eventually(t, func() bool {
		_ = writer.Put(context.Background(), "watched", []byte("v1"))
		select {
		case key := <-changed:
			return key == "watched"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, writer.Delete(context.Background(), "watched"))
	waitFor("watched")

	cancel()
	select {
	case <-watchErr:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
