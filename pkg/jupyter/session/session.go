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

// Package session talks to the Jupyter server's /api/sessions surface: a
// session pairs a notebook path with the kernel backing it, and creating
// one is how kernelmgr provisions a kernel for a notebook (§4.4).
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient is the minimal surface this package needs, letting callers
// plug in an auth-injecting client (see jupyter/auth.Client) in place of a
// bare *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the client for session management
type Client struct {
	// baseURL is the base URL of the Jupyter server
	baseURL string

	// httpClient sends the underlying HTTP requests
	httpClient HTTPClient
}

// NewClient creates a new session management client
func NewClient(baseURL string, httpClient HTTPClient) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CreateSession creates a new session, starting a kernel of the given name
// for the given notebook path (§4.4's start).
func (c *Client) CreateSession(name, ipynb, kernel string) (*Session, error) {
	url := fmt.Sprintf("%s/api/sessions", c.baseURL)

	reqBody := &SessionCreateRequest{
		Path: ipynb,
		Name: name,
		Type: DefaultSessionType,
		Kernel: &KernelSpec{
			Name: kernel,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned error status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &session, nil
}
