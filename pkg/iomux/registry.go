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

import "sync"

// Registry keeps exactly one Hub alive per kernel id, so every consumer of
// a given kernel's traffic shares the same reader goroutine (§4.5: one
// reader per kernel).
type Registry struct {
	mu   sync.Mutex
	hubs map[string]*Hub
}

// NewRegistry returns an empty hub registry.
func NewRegistry() *Registry {
	return &Registry{hubs: make(map[string]*Hub)}
}

// GetOrConnect returns the existing hub for kernelID, or dials a fresh one
// using wsURL if none exists yet.
func (r *Registry) GetOrConnect(kernelID, wsURL string) (*Hub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hubs[kernelID]; ok {
		return h, nil
	}
	h, err := Connect(wsURL)
	if err != nil {
		return nil, err
	}
	r.hubs[kernelID] = h
	return h, nil
}

// Drop closes and forgets the hub for kernelID, if any.
func (r *Registry) Drop(kernelID string) {
	r.mu.Lock()
	h, ok := r.hubs[kernelID]
	delete(r.hubs, kernelID)
	r.mu.Unlock()

	if ok {
		h.Close()
	}
}
