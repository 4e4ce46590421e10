package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowdex/rowdex/internal/model"
)

func TestChannelSendRecvOrder(t *testing.T) {
	ch := New()
	ch.Send(model.ChangeSet{"a": {model.DeleteOp("1")}})
	ch.Send(model.ChangeSet{"b": {model.DeleteOp("2")}})

	first, ok := ch.Recv()
	require.True(t, ok)
	assert.Contains(t, first, "a")

	second, ok := ch.Recv()
	require.True(t, ok)
	assert.Contains(t, second, "b")
}

func TestChannelRecvBlocksUntilSend(t *testing.T) {
	ch := New()
	done := make(chan model.ChangeSet, 1)
	go func() {
		cs, ok := ch.Recv()
		if ok {
			done <- cs
		}
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Send(model.ChangeSet{"x": {model.DeleteOp("1")}})

	select {
	case cs := <-done:
		assert.Contains(t, cs, "x")
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Send")
	}
}

func TestChannelTryRecvNonBlocking(t *testing.T) {
	ch := New()
	_, ok := ch.TryRecv()
	assert.False(t, ok)

	ch.Send(model.ChangeSet{"x": {model.DeleteOp("1")}})
	cs, ok := ch.TryRecv()
	require.True(t, ok)
	assert.Contains(t, cs, "x")
}

func TestChannelCloseUnblocksRecv(t *testing.T) {
	ch := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := ch.Recv()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}

func TestChannelSendAfterCloseIsDropped(t *testing.T) {
	ch := New()
	ch.Close()
	ch.Send(model.ChangeSet{"x": {model.DeleteOp("1")}})
	assert.Equal(t, 0, ch.Len())
}
