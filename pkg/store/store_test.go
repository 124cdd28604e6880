package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/illmade-knight/go-callcache/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness pairs a Store with a way to move its notion of time forward.
type harness struct {
	st      store.Store
	advance func(d time.Duration)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newHarnesses(t *testing.T) map[string]func(t *testing.T) harness {
	t.Helper()
	return map[string]func(t *testing.T) harness{
		"InMemory": func(t *testing.T) harness {
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			return harness{
				st:      store.NewInMemoryStore(store.WithClock(clock.Now)),
				advance: clock.Advance,
			}
		},
		"Redis": func(t *testing.T) harness {
			mr := miniredis.RunT(t)
			st, err := store.NewRedisStore(context.Background(), &store.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return harness{st: st, advance: mr.FastForward}
		},
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, newHarness := range newHarnesses(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("Set and Get round trip scalar kinds", func(t *testing.T) {
				h := newHarness(t)
				testCases := []struct {
					value    any
					expected string
				}{
					{value: "hello", expected: "hello"},
					{value: []byte{0x00, 0xff, 'a'}, expected: "\x00\xffa"},
					{value: 42, expected: "42"},
					{value: int64(-7), expected: "-7"},
					{value: uint8(200), expected: "200"},
					{value: 3.25, expected: "3.25"},
					{value: float32(0.5), expected: "0.5"},
				}
				for i, tc := range testCases {
					key := fmt.Sprintf("k%d", i)
					require.NoError(t, h.st.Set(ctx, key, tc.value))

					got, found, err := h.st.Get(ctx, key)
					require.NoError(t, err)
					require.True(t, found)
					assert.Equal(t, tc.expected, string(got))
				}
			})

			t.Run("Get missing key is not an error", func(t *testing.T) {
				h := newHarness(t)
				got, found, err := h.st.Get(ctx, "missing")
				require.NoError(t, err)
				assert.False(t, found)
				assert.Nil(t, got)
			})

			t.Run("Unsupported value is rejected", func(t *testing.T) {
				h := newHarness(t)
				err := h.st.Set(ctx, "k", struct{}{})
				assert.ErrorIs(t, err, store.ErrUnsupportedValue)

				exists, err := h.st.Exists(ctx, "k")
				require.NoError(t, err)
				assert.False(t, exists)
			})

			t.Run("Incr creates at zero and counts up", func(t *testing.T) {
				h := newHarness(t)
				for want := int64(1); want <= 3; want++ {
					n, err := h.st.Incr(ctx, "counter")
					require.NoError(t, err)
					assert.Equal(t, want, n)
				}
				got, _, err := h.st.Get(ctx, "counter")
				require.NoError(t, err)
				assert.Equal(t, "3", string(got))
			})

			t.Run("Incr on non-integer fails", func(t *testing.T) {
				h := newHarness(t)
				require.NoError(t, h.st.Set(ctx, "text", "abc"))
				_, err := h.st.Incr(ctx, "text")
				assert.ErrorIs(t, err, store.ErrNotInteger)
			})

			t.Run("Incr on empty string fails", func(t *testing.T) {
				h := newHarness(t)
				require.NoError(t, h.st.Set(ctx, "empty", ""))
				_, err := h.st.Incr(ctx, "empty")
				assert.ErrorIs(t, err, store.ErrNotInteger)

				got, found, err := h.st.Get(ctx, "empty")
				require.NoError(t, err)
				assert.True(t, found)
				assert.Empty(t, got, "A failed Incr should leave the value untouched")
			})

			t.Run("ReadCounter", func(t *testing.T) {
				h := newHarness(t)
				n, err := store.ReadCounter(ctx, h.st, "never")
				require.NoError(t, err)
				assert.Zero(t, n)

				_, err = h.st.Incr(ctx, "hits")
				require.NoError(t, err)
				n, err = store.ReadCounter(ctx, h.st, "hits")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				require.NoError(t, h.st.Set(ctx, "text", "abc"))
				_, err = store.ReadCounter(ctx, h.st, "text")
				assert.ErrorIs(t, err, store.ErrNotInteger)
			})

			t.Run("Incr is atomic under concurrent callers", func(t *testing.T) {
				h := newHarness(t)
				const callers = 50
				var wg sync.WaitGroup
				for i := 0; i < callers; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := h.st.Incr(ctx, "concurrent")
						assert.NoError(t, err)
					}()
				}
				wg.Wait()

				got, _, err := h.st.Get(ctx, "concurrent")
				require.NoError(t, err)
				assert.Equal(t, fmt.Sprint(callers), string(got))
			})

			t.Run("SetWithTTL expires after the window", func(t *testing.T) {
				h := newHarness(t)
				require.NoError(t, h.st.SetWithTTL(ctx, "ttl-key", "v", 10*time.Second))

				h.advance(9 * time.Second)
				exists, err := h.st.Exists(ctx, "ttl-key")
				require.NoError(t, err)
				assert.True(t, exists, "Key should still exist inside the TTL window")

				h.advance(2 * time.Second)
				exists, err = h.st.Exists(ctx, "ttl-key")
				require.NoError(t, err)
				assert.False(t, exists, "Key should have expired")

				_, found, err := h.st.Get(ctx, "ttl-key")
				require.NoError(t, err)
				assert.False(t, found)
			})

			t.Run("SetWithTTL rejects non-positive ttl", func(t *testing.T) {
				h := newHarness(t)
				err := h.st.SetWithTTL(ctx, "k", "v", 0)
				assert.ErrorIs(t, err, store.ErrInvalidTTL)
			})

			t.Run("Lists keep append order", func(t *testing.T) {
				h := newHarness(t)
				empty, err := h.st.ListRange(ctx, "list")
				require.NoError(t, err)
				assert.Empty(t, empty)

				for _, v := range []string{"a", "b", "c"} {
					require.NoError(t, h.st.ListAppend(ctx, "list", v))
				}
				got, err := h.st.ListRange(ctx, "list")
				require.NoError(t, err)
				assert.Equal(t, []string{"a", "b", "c"}, got)
			})

			t.Run("Kind mismatch is reported", func(t *testing.T) {
				h := newHarness(t)
				require.NoError(t, h.st.Set(ctx, "scalar", "v"))
				require.NoError(t, h.st.ListAppend(ctx, "list", "v"))

				assert.ErrorIs(t, h.st.ListAppend(ctx, "scalar", "x"), store.ErrWrongType)
				_, err := h.st.ListRange(ctx, "scalar")
				assert.ErrorIs(t, err, store.ErrWrongType)
				_, _, err = h.st.Get(ctx, "list")
				assert.ErrorIs(t, err, store.ErrWrongType)
			})

			t.Run("FlushAll clears the namespace", func(t *testing.T) {
				h := newHarness(t)
				require.NoError(t, h.st.Set(ctx, "a", "1"))
				require.NoError(t, h.st.ListAppend(ctx, "b", "1"))

				require.NoError(t, h.st.FlushAll(ctx))

				for _, key := range []string{"a", "b"} {
					exists, err := h.st.Exists(ctx, key)
					require.NoError(t, err)
					assert.False(t, exists)
				}
			})
		})
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("Connect fails when the server is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := store.NewRedisStore(ctx, &store.RedisConfig{Addr: addr}, zerolog.Nop())
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	})

	t.Run("Commands fail after the connection is lost", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		st := store.NewRedisStoreFromClient(rdb, zerolog.Nop())
		t.Cleanup(func() { _ = st.Close() })
		require.NoError(t, st.Set(ctx, "k", "v"))

		mr.Close()

		_, _, err := st.Get(ctx, "k")
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
		_, err = st.Incr(ctx, "c")
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	})
}
