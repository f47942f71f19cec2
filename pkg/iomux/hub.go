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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/notebookd/notebookd/pkg/jupyter/execute"
	"github.com/notebookd/notebookd/pkg/log"
)

func marshalContent(content any) (json.RawMessage, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal message content: %w", err)
	}
	return raw, nil
}

// Hub owns the single websocket connection to one kernel's `/channels`
// endpoint and fans its traffic out to any number of subscribers, each
// keyed by the parent request's message id (§4.5).
type Hub struct {
	conn    *websocket.Conn
	session string

	mu        sync.Mutex
	seq       uint64
	msgN      int
	subs      map[string]map[*Subscription]struct{}
	cancelled map[string]bool
	closed    bool

	ring *ring
}

// Connect dials the kernel's websocket channel endpoint and starts its
// reader goroutine. wsURL must already carry any required auth query
// parameter (see kernelmgr/session wiring).
func Connect(wsURL string) (*Hub, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && err != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connect kernel channel: %w", err)
	}

	h := &Hub{
		conn:      conn,
		session:   uuid.New().String(),
		subs:      make(map[string]map[*Subscription]struct{}),
		cancelled: make(map[string]bool),
		ring:      newRing(defaultRingSize),
	}
	go h.readLoop()
	return h, nil
}

// Close tears down the websocket connection and unblocks every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]map[*Subscription]struct{})
	h.mu.Unlock()

	_ = h.conn.Close()
	for _, set := range subs {
		for sub := range set {
			close(sub.ch)
		}
	}
}

// NewRequestID mints a message id suitable for use as both a shell request's
// msg_id and the parent id subscribers register against.
func (h *Hub) NewRequestID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgN++
	return fmt.Sprintf("%s-%d", h.session, h.msgN)
}

// Subscribe registers interest in every event whose parent_header.msg_id
// equals parentMsgID, replaying anything already buffered in the ring
// first so a late-attaching subscriber catches up (§4.5).
func (h *Hub) Subscribe(parentMsgID string) *Subscription {
	sub := &Subscription{
		hub:      h,
		parentID: parentMsgID,
		ch:       make(chan Event, defaultSubscriberQueue),
	}

	h.mu.Lock()
	if h.subs[parentMsgID] == nil {
		h.subs[parentMsgID] = make(map[*Subscription]struct{})
	}
	h.subs[parentMsgID][sub] = struct{}{}
	h.mu.Unlock()

	for _, e := range h.ring.since(parentMsgID, 0) {
		select {
		case sub.ch <- e:
		default:
		}
	}
	return sub
}

// Cancel stops delivering and buffering any further events for parentMsgID
// (§4.5: cancellation discards subsequent messages for that request).
func (h *Hub) Cancel(parentMsgID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled[parentMsgID] = true
	for sub := range h.subs[parentMsgID] {
		close(sub.ch)
	}
	delete(h.subs, parentMsgID)
}

// SendExecute submits code to the kernel's shell channel under msgID,
// which the caller must have already Subscribe()'d to avoid missing the
// earliest replies.
func (h *Hub) SendExecute(msgID, code string) error {
	request := execute.ExecuteRequest{
		Code:            code,
		Silent:          false,
		StoreHistory:    true,
		UserExpressions: make(map[string]string),
		AllowStdin:      false,
		StopOnError:     true,
	}
	return h.send(msgID, "execute_request", request)
}

// SendComplete submits a completion request for code at cursorPos on the
// shell channel under msgID (introspection's get_completions, §6.1).
func (h *Hub) SendComplete(msgID, code string, cursorPos int) error {
	request := struct {
		Code      string `json:"code"`
		CursorPos int    `json:"cursor_pos"`
	}{Code: code, CursorPos: cursorPos}
	return h.send(msgID, "complete_request", request)
}

// send wraps content in a Jupyter message envelope carrying msgID and
// msgType and writes it to the kernel websocket. Interrupts do not use
// this path: kernelmgr.Interrupt goes through the REST API.
func (h *Hub) send(msgID, msgType string, content any) error {
	msg := execute.Message{
		Header: execute.Header{
			MessageID:   msgID,
			Username:    "notebookd",
			Session:     h.session,
			Date:        time.Now().Format(time.RFC3339),
			MessageType: msgType,
			Version:     "5.3",
		},
		Metadata: make(map[string]interface{}),
		Channel:  "shell",
	}
	raw, err := marshalContent(content)
	if err != nil {
		return err
	}
	msg.Content = raw

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn.WriteJSON(msg)
}

func (h *Hub) readLoop() {
	for {
		var msg execute.Message
		if err := h.conn.ReadJSON(&msg); err != nil {
			log.Warn("iomux: kernel channel closed: %v", err)
			h.Close()
			return
		}

		h.mu.Lock()
		h.seq++
		seq := h.seq
		parentID := msg.ParentHeader.MessageID
		skip := h.cancelled[parentID]
		h.mu.Unlock()
		if skip {
			continue
		}

		event := Event{
			Seq:         seq,
			ParentMsgID: parentID,
			MsgType:     msg.Header.MessageType,
			Content:     msg.Content,
		}
		h.ring.push(event)
		h.deliver(event)
	}
}

func (h *Hub) deliver(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[e.ParentMsgID] {
		select {
		case sub.ch <- e:
		default:
			log.Warn("iomux: dropping event for slow subscriber on %s", e.ParentMsgID)
		}
	}
}

// Subscription is a bounded view onto one request's event stream.
type Subscription struct {
	hub      *Hub
	parentID string
	ch       chan Event
}

// Events returns the channel events are delivered on. It is closed when the
// hub shuts down or the subscription is cancelled/unsubscribed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe removes this one subscriber without affecting others
// registered on the same parent id.
func (s *Subscription) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if set, ok := s.hub.subs[s.parentID]; ok {
		if _, present := set[s]; present {
			delete(set, s)
			close(s.ch)
		}
	}
}
