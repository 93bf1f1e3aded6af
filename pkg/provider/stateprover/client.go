package stateprover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// rootGIndex addresses the tree root itself. A proof request at this
// index returns the root digest as its leaf with an empty witness list.
const rootGIndex = 1

// ClientConfig holds the configuration for the state prover client
type ClientConfig struct {
	// RPCURL is the base URL of the state prover service
	RPCURL string

	// Network is the chain the service proves against (mainnet, sepolia, ...)
	Network string

	// Logger for request/response diagnostics
	Logger *zap.Logger

	// Timeout for individual HTTP requests. Defaults to 30s.
	Timeout time.Duration

	// RequestsPerSec throttles outgoing requests. 0 disables throttling.
	RequestsPerSec float64
}

// Client talks to a state prover sidecar service
// (github.com/commonprefix/state-prover), which exposes single-gindex
// merkle proofs over beacon states and blocks.
type Client struct {
	rpcURL     string
	network    string
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// proofResponse mirrors the state prover's JSON proof body.
type proofResponse struct {
	GIndex    uint64        `json:"gindex"`
	Witnesses []common.Hash `json:"witnesses"`
	Leaf      common.Hash   `json:"leaf"`
}

// NewClient creates a state prover client from the given configuration.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("state prover RPC URL is required")
	}
	if cfg.Network == "" {
		return nil, fmt.Errorf("network is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &Client{
		rpcURL:     cfg.RPCURL,
		network:    cfg.Network,
		logger:     cfg.Logger,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// SetHttpClient allows setting a custom HTTP client.
// Useful for testing or custom transport configuration.
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// FetchBranch requests the sibling branch for a generalized index
// against the given state.
func (c *Client) FetchBranch(ctx context.Context, index merkle.GeneralizedIndex, stateID types.StateID) ([]common.Hash, error) {
	resp, err := c.getStateProof(ctx, stateID, uint64(index))
	if err != nil {
		return nil, err
	}
	return resp.Witnesses, nil
}

// FetchStateRoot requests the root digest of the given state. The root
// is the leaf of a proof at gindex 1.
func (c *Client) FetchStateRoot(ctx context.Context, stateID types.StateID) (common.Hash, error) {
	resp, err := c.getStateProof(ctx, stateID, rootGIndex)
	if err != nil {
		return common.Hash{}, err
	}
	return resp.Leaf, nil
}

// FetchBlockRoot requests the root of the block at the given slot.
func (c *Client) FetchBlockRoot(ctx context.Context, slot types.Slot) (common.Hash, error) {
	query := url.Values{}
	query.Set("block_id", slot.String())
	query.Set("gindex", fmt.Sprintf("%d", rootGIndex))
	query.Set("network", c.network)

	var resp proofResponse
	if err := c.getJSON(ctx, c.rpcURL+"/block_proof?"+query.Encode(), &resp); err != nil {
		return common.Hash{}, err
	}
	return resp.Leaf, nil
}

func (c *Client) getStateProof(ctx context.Context, stateID types.StateID, gindex uint64) (*proofResponse, error) {
	query := url.Values{}
	query.Set("state_id", stateID.String())
	query.Set("gindex", fmt.Sprintf("%d", gindex))
	query.Set("network", c.network)

	var resp proofResponse
	if err := c.getJSON(ctx, c.rpcURL+"/state_proof?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter wait failed")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %s", requestURL)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Sugar().Debugw("State prover request", "url", requestURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", requestURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(provider.ErrNotFound, "%s", requestURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("state prover returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(provider.ErrInvalidResponse, "decoding %s: %v", requestURL, err)
	}
	return nil
}

// Compile-time check that Client implements IProofProvider
var _ provider.IProofProvider = (*Client)(nil)
