// Package httpclient is a client for the chat endpoint of an agentstream
// server. It posts AI SDK chat requests and reads back the UI message
// stream.
package httpclient

import (
	// Packages
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client wraps the base HTTP client and provides typed methods for the
// chat endpoint.
type Client struct {
	*client.Client
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new client with the given base URL and options. The url
// parameter should point to the API endpoint, e.g.
// "http://localhost:8084/api".
func New(url string, opts ...client.ClientOpt) (*Client, error) {
	c := new(Client)
	if client, err := client.New(append(opts, client.OptEndpoint(url))...); err != nil {
		return nil, err
	} else {
		c.Client = client
	}
	return c, nil
}
