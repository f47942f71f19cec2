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

package controller

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/notebookd/notebookd/pkg/log"
	"github.com/notebookd/notebookd/pkg/util/safego"
	"github.com/notebookd/notebookd/pkg/web/model"
)

var sseHeaders = map[string]string{
	"Content-Type":      "text/event-stream",
	"Cache-Control":     "no-cache",
	"Connection":        "keep-alive",
	"X-Accel-Buffering": "no",
}

func (c *basicController) setupSSEResponse() {
	for key, value := range sseHeaders {
		c.ctx.Writer.Header().Set(key, value)
	}
	if flusher, ok := c.ctx.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeSingleEvent serializes one SSE frame. chunkWriter serializes
// writes against the concurrent ping goroutine.
func (c *basicController) writeSingleEvent(chunkWriter *sync.Mutex, handler string, data []byte, verbose bool) {
	if c == nil || c.ctx == nil || c.ctx.Writer == nil {
		return
	}

	select {
	case <-c.ctx.Request.Context().Done():
		log.Error("StreamEvent.%s: client disconnected", handler)
		return
	default:
	}

	chunkWriter.Lock()
	defer chunkWriter.Unlock()
	defer func() {
		if flusher, ok := c.ctx.Writer.(http.Flusher); ok {
			flusher.Flush()
		}
	}()

	payload := append(data, '\n', '\n')
	n, err := c.ctx.Writer.Write(payload)
	if err == nil && n != len(payload) {
		err = io.ErrShortWrite
	}

	if err != nil {
		log.Error("StreamEvent.%s write data %s error: %v", handler, string(data), err)
	} else if verbose {
		log.Info("StreamEvent.%s write data %s", handler, string(data))
	}
}

// pingLoop periodically keeps an SSE connection alive until ctx is done.
func (c *basicController) pingLoop(ctx context.Context, chunkWriter *sync.Mutex) {
	safego.Go(func() {
		wait.Until(func() {
			if c.ctx.Writer == nil {
				return
			}
			payload := model.StreamEvent{
				Type:      model.StreamEventTypePing,
				Timestamp: time.Now().UnixMilli(),
			}.ToJSON()
			c.writeSingleEvent(chunkWriter, "Ping", payload, false)
		}, 3*time.Second, ctx.Done())
	})
}
