package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/solstice-fi/gaugex/pkg/chains"
	"github.com/solstice-fi/gaugex/pkg/utils"
	"go.uber.org/zap"
)

// Client queries the protocol subgraph, the off-chain index that carries the
// routing metadata (chain, recipient) the controller does not expose.
type Client struct {
	endpoint  string
	homeChain chains.Chain
	client    *http.Client
	pageSize  int
	logger    *zap.Logger
}

// Opts is the set of options for a new subgraph Client.
type Opts struct {
	Endpoint   string
	HomeChain  chains.Chain
	Timeout    time.Duration
	PageSize   int
	HTTPClient *http.Client
}

// NewClient creates a subgraph client with the given options.
func NewClient(o Opts, logger *zap.Logger) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.PageSize <= 0 {
		o.PageSize = 500
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	return &Client{
		endpoint:  o.Endpoint,
		homeChain: o.HomeChain,
		client:    client,
		pageSize:  o.PageSize,
		logger:    logger,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// query posts a GraphQL document and decodes the data envelope into out.
// GraphQL-level errors are returned as Go errors; there is no partial-data
// handling here because every query this client issues is all-or-nothing.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	if c.endpoint == "" {
		return fmt.Errorf("no subgraph endpoint configured")
	}

	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		_ = utils.DrainAndClose(resp.Body)
		return fmt.Errorf("subgraph http %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		_ = utils.DrainAndClose(resp.Body)
		return fmt.Errorf("decode subgraph response: %w", err)
	}
	if cerr := utils.DrainAndClose(resp.Body); cerr != nil {
		return cerr
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph query: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("unmarshal subgraph data: %w", err)
		}
	}
	return nil
}
