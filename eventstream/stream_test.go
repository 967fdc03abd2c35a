// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package eventstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventsStream(t *testing.T) {
	t.Run("With Subscription", func(t *testing.T) {
		stream := New()

		// add consumer
		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")
		stream.Subscribe(cons, "t2")

		require.EqualValues(t, 1, stream.SubscribersCount("t1"))
		require.EqualValues(t, 1, stream.SubscribersCount("t2"))

		// remove the consumer
		stream.RemoveSubscriber(cons)
		assert.Zero(t, stream.SubscribersCount("t1"))
		assert.Zero(t, stream.SubscribersCount("t2"))

		stream.Subscribe(cons, "t3")
		assert.Zero(t, stream.SubscribersCount("t3"))

		t.Cleanup(func() {
			stream.Close()
		})
	})
	t.Run("With Unsubscription", func(t *testing.T) {
		stream := New()

		// add consumer
		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")
		stream.Subscribe(cons, "t2")

		require.EqualValues(t, 1, stream.SubscribersCount("t1"))
		require.EqualValues(t, 1, stream.SubscribersCount("t2"))

		// unsubscribe the consumer
		stream.Unsubscribe(cons, "t1")
		assert.Zero(t, stream.SubscribersCount("t1"))
		require.EqualValues(t, 1, stream.SubscribersCount("t2"))

		stream.Subscribe(cons, "t3")
		require.EqualValues(t, 1, stream.SubscribersCount("t3"))

		// remove the consumer
		stream.RemoveSubscriber(cons)
		stream.Subscribe(cons, "t4")
		assert.Zero(t, stream.SubscribersCount("t4"))

		t.Cleanup(func() {
			stream.Close()
		})
	})
	t.Run("With Publication", func(t *testing.T) {
		stream := New()

		// add consumer
		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")
		stream.Subscribe(cons, "t2")

		require.EqualValues(t, 1, stream.SubscribersCount("t1"))
		require.EqualValues(t, 1, stream.SubscribersCount("t2"))

		stream.Publish("t1", "hi")
		stream.Publish("t2", "hello")

		time.Sleep(time.Second)

		var messages []*Message
		for message := range cons.Iterator() {
			messages = append(messages, message)
		}

		assert.Len(t, messages, 2)
		assert.Len(t, cons.Topics(), 2)

		t.Cleanup(func() {
			stream.Close()
		})
	})
	t.Run("With Broadcast", func(t *testing.T) {
		stream := New()

		// add consumer
		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")
		stream.Subscribe(cons, "t2")

		require.EqualValues(t, 1, stream.SubscribersCount("t1"))
		require.EqualValues(t, 1, stream.SubscribersCount("t2"))

		stream.Broadcast("hi", []string{"t1", "t2"})

		time.Sleep(time.Second)

		var messages []*Message
		for message := range cons.Iterator() {
			messages = append(messages, message)
		}

		assert.Len(t, messages, 2)
		assert.Len(t, cons.Topics(), 2)

		t.Cleanup(func() {
			stream.Close()
		})
	})
	t.Run("With message payload and topic", func(t *testing.T) {
		stream := New()

		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")

		stream.Publish("t1", "payload")
		time.Sleep(500 * time.Millisecond)

		var messages []*Message
		for message := range cons.Iterator() {
			messages = append(messages, message)
		}

		require.Len(t, messages, 1)
		assert.Equal(t, "t1", messages[0].Topic())
		assert.Equal(t, "payload", messages[0].Payload())

		t.Cleanup(func() {
			stream.Close()
		})
	})
	t.Run("With inactive subscriber", func(t *testing.T) {
		stream := New()

		cons := stream.AddSubscriber()
		require.NotNil(t, cons)
		stream.Subscribe(cons, "t1")

		cons.Shutdown()
		require.False(t, cons.Active())

		stream.Publish("t1", "hi")
		time.Sleep(500 * time.Millisecond)

		var messages []*Message
		for message := range cons.Iterator() {
			messages = append(messages, message)
		}
		assert.Empty(t, messages)

		t.Cleanup(func() {
			stream.Close()
		})
	})
}
