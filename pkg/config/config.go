package config

import (
	"fmt"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
)

// Environment variable names for the ancestry prover configuration
const (
	EnvNetwork        = "ANCESTRY_NETWORK"
	EnvFork           = "ANCESTRY_FORK"
	EnvStateProverURL = "ANCESTRY_STATE_PROVER_URL"
	EnvLodestarURL    = "ANCESTRY_LODESTAR_URL"
	EnvStoreType      = "ANCESTRY_STORE_TYPE"
	EnvStorePath      = "ANCESTRY_STORE_PATH"
	EnvRedisAddress   = "ANCESTRY_REDIS_ADDRESS"
	EnvVerbose        = "ANCESTRY_VERBOSE"
)

// SlotsPerHistoricalRoot is the capacity W of the block-roots history
// buffer embedded in the beacon state. A target block older than W slots
// relative to the anchor cannot be proven from a single window.
const SlotsPerHistoricalRoot = 8192

// BlockRootsDepth is the depth of the block-roots vector subtree:
// log2(SlotsPerHistoricalRoot).
const BlockRootsDepth = 13

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkSepolia Network = "sepolia"
	NetworkHolesky Network = "holesky"
)

// SupportedNetworks lists the networks accepted by Validate and the CLI.
var SupportedNetworks = []Network{NetworkMainnet, NetworkSepolia, NetworkHolesky}

// ForkName selects a protocol version's state container layout.
type ForkName string

const (
	ForkPhase0    ForkName = "phase0"
	ForkAltair    ForkName = "altair"
	ForkBellatrix ForkName = "bellatrix"
	ForkCapella   ForkName = "capella"
	ForkDeneb     ForkName = "deneb"
	ForkElectra   ForkName = "electra"
)

// ForkLayout captures the container-layout constants of one protocol
// version. The block-roots field index inside the BeaconState container
// changes whenever a fork grows the container past a power-of-two field
// count, so it is configuration, never a hard-coded literal in the core.
type ForkLayout struct {
	Name ForkName

	// BlockRootsGIndex is the generalized index of the block_roots field
	// within the BeaconState container tree.
	BlockRootsGIndex merkle.GeneralizedIndex
}

// ContainerDepth returns the number of sibling levels between the
// block-roots field and the state root.
func (l ForkLayout) ContainerDepth() int {
	return l.BlockRootsGIndex.Depth()
}

// block_roots is field 5 of the BeaconState container in every fork to
// date. Through deneb the container packs into 32 leaves (gindex 32+5);
// electra grows it past 32 fields, doubling the container depth.
var forkLayouts = map[ForkName]ForkLayout{
	ForkPhase0:    {Name: ForkPhase0, BlockRootsGIndex: 37},
	ForkAltair:    {Name: ForkAltair, BlockRootsGIndex: 37},
	ForkBellatrix: {Name: ForkBellatrix, BlockRootsGIndex: 37},
	ForkCapella:   {Name: ForkCapella, BlockRootsGIndex: 37},
	ForkDeneb:     {Name: ForkDeneb, BlockRootsGIndex: 37},
	ForkElectra:   {Name: ForkElectra, BlockRootsGIndex: 69},
}

// GetForkLayout returns the container layout for a protocol version.
func GetForkLayout(fork ForkName) (ForkLayout, error) {
	layout, ok := forkLayouts[fork]
	if !ok {
		return ForkLayout{}, fmt.Errorf("unsupported fork: %s", fork)
	}
	return layout, nil
}

// SupportedForks returns all fork names with a known layout.
func SupportedForks() []ForkName {
	return []ForkName{ForkPhase0, ForkAltair, ForkBellatrix, ForkCapella, ForkDeneb, ForkElectra}
}

// StoreType selects the proof store backend.
type StoreType string

const (
	StoreTypeNone   StoreType = "none"
	StoreTypeMemory StoreType = "memory"
	StoreTypeBadger StoreType = "badger"
	StoreTypeRedis  StoreType = "redis"
)

// Config is the complete configuration for the ancestry prover CLI and
// any embedding application.
type Config struct {
	// Chain selection
	Network Network  `json:"network"`
	Fork    ForkName `json:"fork"`

	// Provider endpoints. Exactly one must be set; the state prover takes
	// precedence when both are.
	StateProverURL string `json:"state_prover_url,omitempty"`
	LodestarURL    string `json:"lodestar_url,omitempty"`

	// HTTP behavior
	RequestTimeout time.Duration `json:"request_timeout"`
	RequestsPerSec float64       `json:"requests_per_sec"` // 0 disables rate limiting

	// Proof store
	StoreType    StoreType `json:"store_type"`
	StorePath    string    `json:"store_path,omitempty"`    // badger data directory
	RedisAddress string    `json:"redis_address,omitempty"` // host:port

	// Operational settings
	Verbose bool `json:"verbose"`
}

// DefaultConfig returns a config with operational defaults filled in.
// Endpoints and network must still be supplied by the caller.
func DefaultConfig() *Config {
	return &Config{
		Network:        NetworkMainnet,
		Fork:           ForkCapella,
		RequestTimeout: 30 * time.Second,
		RequestsPerSec: 10,
		StoreType:      StoreTypeNone,
	}
}

// Validate checks the configuration and reports all problems at once.
func (c *Config) Validate() error {
	var allErrors field.ErrorList

	networkOK := false
	for _, n := range SupportedNetworks {
		if c.Network == n {
			networkOK = true
			break
		}
	}
	if !networkOK {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("network"), c.Network, networkNames()))
	}

	if _, err := GetForkLayout(c.Fork); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fork"), c.Fork, err.Error()))
	}

	if c.StateProverURL == "" && c.LodestarURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("stateProverUrl"),
			"either a state prover or a lodestar endpoint is required"))
	}
	if c.StateProverURL != "" {
		if _, err := url.ParseRequestURI(c.StateProverURL); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("stateProverUrl"), c.StateProverURL, err.Error()))
		}
	}
	if c.LodestarURL != "" {
		if _, err := url.ParseRequestURI(c.LodestarURL); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("lodestarUrl"), c.LodestarURL, err.Error()))
		}
	}

	if c.RequestTimeout <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestTimeout"), c.RequestTimeout,
			"request timeout must be positive"))
	}
	if c.RequestsPerSec < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSec"), c.RequestsPerSec,
			"rate limit cannot be negative"))
	}

	switch c.StoreType {
	case StoreTypeNone, StoreTypeMemory:
	case StoreTypeBadger:
		if c.StorePath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("storePath"),
				"badger store requires a data directory"))
		}
	case StoreTypeRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"),
				"redis store requires an address"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("storeType"), c.StoreType,
			[]string{string(StoreTypeNone), string(StoreTypeMemory), string(StoreTypeBadger), string(StoreTypeRedis)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func networkNames() []string {
	names := make([]string, len(SupportedNetworks))
	for i, n := range SupportedNetworks {
		names[i] = string(n)
	}
	return names
}
