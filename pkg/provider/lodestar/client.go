package lodestar

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// ClientConfig holds the configuration for the Lodestar client
type ClientConfig struct {
	// RPCURL is the base URL of a Lodestar beacon node
	RPCURL string

	// Logger for request/response diagnostics
	Logger *zap.Logger

	// Timeout for individual HTTP requests. Defaults to 30s.
	Timeout time.Duration

	// RequestsPerSec throttles outgoing requests. 0 disables throttling.
	RequestsPerSec float64
}

// Client talks to a Lodestar beacon node directly, without a sidecar:
// branches come from the experimental compact multiproof endpoint
// (/eth/v0/beacon/proof/state), roots from the standard beacon API.
type Client struct {
	rpcURL     string
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// rootResponse is the standard beacon API envelope for root queries.
type rootResponse struct {
	Data struct {
		Root common.Hash `json:"root"`
	} `json:"data"`
}

// NewClient creates a Lodestar client from the given configuration.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("lodestar RPC URL is required")
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

// FetchBranch requests a compact multiproof for the generalized index
// and extracts the leaf-up sibling branch from it.
func (c *Client) FetchBranch(ctx context.Context, index merkle.GeneralizedIndex, stateID types.StateID) ([]common.Hash, error) {
	descriptor, err := ComputeDescriptor(index)
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/eth/v0/beacon/proof/state/%s?format=%s",
		c.rpcURL, stateID, hex.EncodeToString(descriptor))

	body, err := c.get(ctx, requestURL, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	if len(body)%32 != 0 {
		return nil, errors.Wrapf(provider.ErrInvalidResponse,
			"compact proof body is %d bytes, not a multiple of 32", len(body))
	}

	values := make([][]byte, 0, len(body)/32)
	for off := 0; off < len(body); off += 32 {
		values = append(values, body[off:off+32])
	}

	_, rawBranch, err := branchFromTerminals(index, TerminalGIndices(index), values)
	if err != nil {
		return nil, errors.Wrap(provider.ErrInvalidResponse, err.Error())
	}

	branch := make([]common.Hash, len(rawBranch))
	for i, value := range rawBranch {
		copy(branch[i][:], value)
	}
	return branch, nil
}

// FetchStateRoot returns the state root via the standard beacon API.
func (c *Client) FetchStateRoot(ctx context.Context, stateID types.StateID) (common.Hash, error) {
	return c.getRoot(ctx, fmt.Sprintf("%s/eth/v1/beacon/states/%s/root", c.rpcURL, stateID))
}

// FetchBlockRoot returns the root of the block at the given slot via the
// standard beacon API.
func (c *Client) FetchBlockRoot(ctx context.Context, slot types.Slot) (common.Hash, error) {
	return c.getRoot(ctx, fmt.Sprintf("%s/eth/v1/beacon/blocks/%s/root", c.rpcURL, slot))
}

func (c *Client) getRoot(ctx context.Context, requestURL string) (common.Hash, error) {
	body, err := c.get(ctx, requestURL, "application/json")
	if err != nil {
		return common.Hash{}, err
	}

	var resp rootResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.Hash{}, errors.Wrapf(provider.ErrInvalidResponse, "decoding %s: %v", requestURL, err)
	}
	return resp.Data.Root, nil
}

// get performs a rate-limited GET and returns the raw body.
func (c *Client) get(ctx context.Context, requestURL, accept string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter wait failed")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", requestURL)
	}
	req.Header.Set("Accept", accept)

	c.logger.Sugar().Debugw("Lodestar request", "url", requestURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", requestURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(provider.ErrNotFound, "%s", requestURL)
	}
	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("lodestar returned status %d: %s", resp.StatusCode, string(preview))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}

// Compile-time check that Client implements IProofProvider
var _ provider.IProofProvider = (*Client)(nil)
