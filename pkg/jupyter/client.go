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

// Package jupyter is a thin REST facade over a Jupyter server's kernel and
// session management APIs, composed from the kernel/session sub-packages.
// Code execution itself does not go through this facade: iomux dials the
// kernel's websocket channel directly (kernelmgr.WSURL), since the
// subscription fan-out it needs has no REST shape.
package jupyter

import (
	"net/http"

	"github.com/notebookd/notebookd/pkg/jupyter/auth"
	"github.com/notebookd/notebookd/pkg/jupyter/kernel"
	"github.com/notebookd/notebookd/pkg/jupyter/session"
)

// Client interacts with the Jupyter server.
type Client struct {
	BaseURL       string
	Auth          *auth.Auth
	kernelClient  *kernel.Client
	sessionClient *session.Client
}

type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client used for requests not
// already wrapped by the auth-injecting transport.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.kernelClient = kernel.NewClient(c.BaseURL, auth.NewClient(client, c.Auth))
		c.sessionClient = session.NewClient(c.BaseURL, auth.NewClient(client, c.Auth))
	}
}

// WithToken configures the client with an authentication token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.Auth.Token = token
	}
}

// NewClient creates a new Jupyter client instance, wrapping baseURL's
// kernel and session REST surfaces behind a shared auth.Client so the
// token set via WithToken reaches both without a separate RoundTripper.
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		BaseURL: baseURL,
		Auth:    auth.NewAuth(),
	}

	for _, option := range options {
		option(client)
	}

	if client.kernelClient == nil {
		authed := auth.NewClient(http.DefaultClient, client.Auth)
		client.kernelClient = kernel.NewClient(baseURL, authed)
		client.sessionClient = session.NewClient(baseURL, authed)
	}

	return client
}

// ListKernels retrieves all running kernels.
func (c *Client) ListKernels() ([]*kernel.Kernel, error) {
	return c.kernelClient.ListKernels()
}

// GetKernel retrieves information about a specific kernel.
func (c *Client) GetKernel(kernelId string) (*kernel.Kernel, error) {
	return c.kernelClient.GetKernel(kernelId)
}

// InterruptKernel interrupts the specified kernel.
func (c *Client) InterruptKernel(kernelId string) error {
	return c.kernelClient.InterruptKernel(kernelId)
}

// ShutdownKernel shuts down (and optionally restarts) the specified kernel.
func (c *Client) ShutdownKernel(kernelId string, restart bool) error {
	return c.kernelClient.ShutdownKernel(kernelId, restart)
}

// CreateSession creates a new session, starting a kernel for it.
func (c *Client) CreateSession(name, ipynb, kernelName string) (*session.Session, error) {
	return c.sessionClient.CreateSession(name, ipynb, kernelName)
}
