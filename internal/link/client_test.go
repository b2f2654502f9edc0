package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// fakeTransport records outgoing frames and optionally replies to calls.
type fakeTransport struct {
	mu     sync.Mutex
	frames []Envelope
	closed bool

	// reply builds the reply for a call; nil means stay silent.
	reply func(env Envelope) *Inbound
	// deliver is wired to the client's HandleIncoming.
	deliver func(data []byte)
}

func (f *fakeTransport) WriteMessage(data []byte) error {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return err
	}

	f.mu.Lock()
	f.frames = append(f.frames, env)
	reply := f.reply
	deliver := f.deliver
	f.mu.Unlock()

	if reply == nil || deliver == nil || env.CallID == "" {
		return nil
	}
	if inb := reply(env); inb != nil {
		inb.Type = MsgReply
		inb.CallID = env.CallID
		data, err := sonic.Marshal(inb)
		if err != nil {
			return err
		}
		go deliver(data)
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) sentFrames() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Envelope(nil), f.frames...)
}

func newTestClient(reply func(env Envelope) *Inbound) (*Client, *fakeTransport) {
	transport := &fakeTransport{reply: reply}
	client := New(id.NewSessionID(), transport)
	transport.deliver = client.HandleIncoming
	return client, transport
}

func resultReply(v any) func(Envelope) *Inbound {
	return func(Envelope) *Inbound {
		raw, _ := sonic.Marshal(v)
		return &Inbound{Result: raw}
	}
}

func TestRunMethodFireAndForget(t *testing.T) {
	client, transport := newTestClient(nil)

	resp := client.RunMethod("el_test", "deselectAll")
	require.NotNil(t, resp)

	frames := transport.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, MsgCall, frames[0].Type)
	assert.Equal(t, "deselectAll", frames[0].Method)
	assert.Equal(t, "el_test", frames[0].Element)
	assert.NotEmpty(t, frames[0].CallID)
}

func TestAwaitDecodesResult(t *testing.T) {
	client, _ := newTestClient(resultReply([]map[string]any{{"id": float64(1), "name": "a"}}))

	result, err := client.RunMethod("el_test", "getSelectedRows").Await(context.Background())
	require.NoError(t, err)

	rows, ok := result.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].(map[string]any)["name"])
	assert.Zero(t, client.PendingCalls())
}

func TestAwaitIntoTypedResult(t *testing.T) {
	client, _ := newTestClient(resultReply([]map[string]any{{"id": 1.0}, {"id": 2.0}}))

	var rows []map[string]any
	err := client.RunMethod("el_test", "getSelectedRows").AwaitInto(context.Background(), &rows)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAwaitTimeoutAgainstUnresponsiveClient(t *testing.T) {
	client, _ := newTestClient(nil) // never replies

	resp := client.RunMethod("el_test", "getSelectedRows")
	_, err := resp.AwaitTimeout(context.Background(), time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrClosed)
	var remoteErr *RemoteError
	assert.False(t, errors.As(err, &remoteErr))
	// Local wait abandoned: the pending slot is gone.
	assert.Zero(t, client.PendingCalls())
}

func TestAwaitRemoteError(t *testing.T) {
	client, _ := newTestClient(func(Envelope) *Inbound {
		return &Inbound{Error: "api.bogus is not a function"}
	})

	_, err := client.RunMethod("el_test", "bogus").Await(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Message, "not a function")
}

func TestAwaitTargetMissing(t *testing.T) {
	client, _ := newTestClient(func(Envelope) *Inbound {
		return &Inbound{Missing: true}
	})

	_, err := client.RunMethod("el_test", "setSelected", true).Await(context.Background())
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestAwaitNullResult(t *testing.T) {
	client, _ := newTestClient(func(Envelope) *Inbound {
		return &Inbound{} // method returned undefined
	})

	result, err := client.RunMethod("el_test", "refreshCells").Await(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCloseFailsPendingCalls(t *testing.T) {
	client, transport := newTestClient(nil)

	resp := client.RunMethod("el_test", "getSelectedRows")
	require.NoError(t, client.Close())

	_, err := resp.Await(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, transport.closed)

	// Calls after close fail the same way without touching the transport.
	_, err = client.RunMethod("el_test", "anything").Await(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLateReplyDiscarded(t *testing.T) {
	client, _ := newTestClient(nil)

	resp := client.RunMethod("el_test", "getSelectedRows")
	_, err := resp.AwaitTimeout(context.Background(), time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	// The client executed anyway and replies after the local abandon.
	late, _ := sonic.Marshal(Inbound{Type: MsgReply, CallID: resp.CallID().String(), Result: []byte(`42`)})
	client.HandleIncoming(late) // must not panic or resolve anything
	assert.Zero(t, client.PendingCalls())
}

func TestUnansweredCallsAreReaped(t *testing.T) {
	transport := &fakeTransport{}
	client := New(id.NewSessionID(), transport, WithPendingTTL(20*time.Millisecond))
	transport.deliver = client.HandleIncoming

	// Responses dropped against a client that never replies: nothing ever
	// resolves or abandons these slots.
	client.RunMethod("el_test", "deselectAll")
	client.RunScript("return 1;")
	require.Equal(t, 2, client.PendingCalls())

	require.Eventually(t, func() bool {
		return client.PendingCalls() == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close())
}

func TestConcurrentCallsResolveOutOfOrder(t *testing.T) {
	// The first-sent call replies last; each await still gets its own result.
	var mu sync.Mutex
	seq := 0
	client, _ := newTestClient(func(env Envelope) *Inbound {
		mu.Lock()
		seq++
		delay := time.Duration(50-seq*20) * time.Millisecond // 30ms, then 10ms
		mu.Unlock()
		time.Sleep(delay)
		raw, _ := sonic.Marshal(env.Args)
		return &Inbound{Result: raw}
	})

	first := client.RunMethod("el_test", "echo", "first")
	second := client.RunMethod("el_test", "echo", "second")

	var wg sync.WaitGroup
	results := make([]any, 2)
	errs := make([]error, 2)
	for i, resp := range []*Response{first, second} {
		wg.Add(1)
		go func(i int, resp *Response) {
			defer wg.Done()
			results[i], errs[i] = resp.AwaitTimeout(context.Background(), time.Second)
		}(i, resp)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, []any{"first"}, results[0])
	assert.Equal(t, []any{"second"}, results[1])
}

func TestRunScript(t *testing.T) {
	client, transport := newTestClient(resultReply([]any{}))

	result, err := client.RunScript("return [];").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{}, result)

	frames := transport.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, MsgScript, frames[0].Type)
	assert.Contains(t, frames[0].Code, "return")
}

func TestEventRouting(t *testing.T) {
	client, _ := newTestClient(nil)

	got := make(chan string, 1)
	client.SetEventHandler(func(element id.ElementID, event string, args []any) {
		got <- fmt.Sprintf("%s/%s/%d", element, event, len(args))
	})

	frame, _ := sonic.Marshal(Inbound{Type: MsgEvent, Element: "el_x", Event: "rowSelected", Args: []any{1.0}})
	client.HandleIncoming(frame)

	select {
	case s := <-got:
		assert.Equal(t, "el_x/rowSelected/1", s)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSendErrorSurfacesOnAwait(t *testing.T) {
	client, _ := newTestClient(nil)
	require.NoError(t, client.Close())

	resp := client.RunScript("return 1;")
	_, err := resp.Await(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
