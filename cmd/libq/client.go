package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type client struct {
	url   string
	token string
	http  *http.Client
}

func newClient(url, token string) *client {
	return &client{url: url, token: token, http: &http.Client{Timeout: 30 * time.Second}}
}

// do posts one document and returns the data member. GraphQL errors are
// folded into the returned error.
func (c *client) do(ctx context.Context, query string, variables map[string]any, operation string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"query":         query,
		"variables":     variables,
		"operationName": operation,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out gqlResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unexpected %s response: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if len(out.Errors) > 0 {
		return out.Data, formatErrors(out.Errors)
	}
	return out.Data, nil
}

func formatErrors(errs []gqlError) error {
	if len(errs) == 1 {
		return fmt.Errorf("graphql: %s", describe(errs[0]))
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, describe(e))
	}
	return fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

func describe(e gqlError) string {
	if code, ok := e.Extensions["code"].(string); ok {
		return fmt.Sprintf("%s (%s)", e.Message, code)
	}
	return e.Message
}
