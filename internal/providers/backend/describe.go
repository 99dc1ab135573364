package backend

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

// DescribeClient submits typed questions to the backend describe
// endpoint and streams the plain-text answer back.
type DescribeClient struct {
	client  *http.Client
	baseURL string
}

func NewDescribeClient(client *http.Client, baseURL string) *DescribeClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &DescribeClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type describeRequest struct {
	Question string `json:"question"`
}

// Describe posts the question and returns the streaming answer body.
// The caller owns the returned reader and must close it.
func (c *DescribeClient) Describe(ctx context.Context, question string) (io.ReadCloser, error) {
	buf, err := json.Marshal(describeRequest{Question: question})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/describe", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("describe status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}
