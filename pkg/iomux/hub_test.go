// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package iomux

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/pkg/jupyter/execute"
)

// echoKernelServer accepts one websocket connection and, for every
// execute_request it receives, replies with a stream message and then a
// status=idle message carrying the same parent id - mimicking the kernel
// wire protocol closely enough to exercise routing and the ring buffer.
func echoKernelServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var msg execute.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			parent := execute.Header{MessageID: msg.Header.MessageID}

			streamContent, _ := marshalContent(execute.StreamOutput{Name: execute.StreamStdout, Text: "hello\n"})
			_ = conn.WriteJSON(execute.Message{
				Header:       execute.Header{MessageType: "stream"},
				ParentHeader: parent,
				Content:      streamContent,
			})

			statusContent, _ := marshalContent(execute.StatusUpdate{ExecutionState: execute.StateIdle})
			_ = conn.WriteJSON(execute.Message{
				Header:       execute.Header{MessageType: "status"},
				ParentHeader: parent,
				Content:      statusContent,
			})
		}
	}))
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestSubscribeReceivesRoutedEvents(t *testing.T) {
	srv := echoKernelServer(t)
	defer srv.Close()

	hub, err := Connect(wsURL(srv.URL))
	require.NoError(t, err)
	defer hub.Close()

	msgID := hub.NewRequestID()
	sub := hub.Subscribe(msgID)
	require.NoError(t, hub.SendExecute(msgID, "print('hello')"))

	var types []string
	timeout := time.After(2 * time.Second)
	for len(types) < 2 {
		select {
		case e := <-sub.Events():
			types = append(types, e.MsgType)
		case <-timeout:
			t.Fatal("timed out waiting for routed events")
		}
	}
	assert.Equal(t, []string{"stream", "status"}, types)
}

func TestCancelDiscardsFurtherEvents(t *testing.T) {
	srv := echoKernelServer(t)
	defer srv.Close()

	hub, err := Connect(wsURL(srv.URL))
	require.NoError(t, err)
	defer hub.Close()

	msgID := hub.NewRequestID()
	sub := hub.Subscribe(msgID)
	require.NoError(t, hub.SendExecute(msgID, "print('hello')"))

	// Drain the first event, then cancel before the second arrives.
	<-sub.Events()
	hub.Cancel(msgID)

	_, open := <-sub.Events()
	assert.False(t, open, "cancel must close the subscription channel")
}

func TestLateSubscriberReplaysFromRing(t *testing.T) {
	srv := echoKernelServer(t)
	defer srv.Close()

	hub, err := Connect(wsURL(srv.URL))
	require.NoError(t, err)
	defer hub.Close()

	msgID := hub.NewRequestID()
	first := hub.Subscribe(msgID)
	require.NoError(t, hub.SendExecute(msgID, "print('hello')"))

	<-first.Events()
	<-first.Events()

	late := hub.Subscribe(msgID)
	select {
	case e := <-late.Events():
		assert.Equal(t, "stream", e.MsgType, "late subscriber should replay from the ring buffer")
	case <-time.After(time.Second):
		t.Fatal("late subscriber never received replayed events")
	}
}
