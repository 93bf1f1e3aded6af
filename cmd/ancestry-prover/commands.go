package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/prover"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider/lodestar"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider/stateprover"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/store"
	badgerstore "github.com/Layr-Labs/ancestry-prover-go/pkg/store/badger"
	memorystore "github.com/Layr-Labs/ancestry-prover-go/pkg/store/memory"
	redisstore "github.com/Layr-Labs/ancestry-prover-go/pkg/store/redis"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

func proveCommand() *cli.Command {
	return &cli.Command{
		Name:  "prove",
		Usage: "Build an ancestry proof for a target slot",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:     "target-slot",
				Usage:    "Slot of the block to prove ancestry for",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "recent-slot",
				Usage:    "Slot of the recent anchor block",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "state-id",
				Usage:    "Identifier of the recent state (state root, or a selector like 'head')",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Write the proof JSON to this file instead of stdout",
			},
		},
		Action: runProve,
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify an ancestry proof against a state root",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "proof",
				Usage:    "Path to the proof JSON produced by prove",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "target-slot",
				Usage:    "Slot of the block the proof is about",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "recent-slot",
				Usage:    "Slot of the recent anchor block",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "expected-state-root",
				Usage: "Trusted state root (0x-prefixed). If omitted, the provider is asked for it",
			},
			&cli.StringFlag{
				Name:  "state-id",
				Usage: "State identifier, required when --expected-state-root is omitted",
			},
		},
		Action: runVerify,
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List stored proofs, oldest first",
		Action: runList,
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a stored proof by ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "ID of the proof record to delete",
				Required: true,
			},
		},
		Action: runDelete,
	}
}

func runProve(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prov, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}

	layout, err := config.GetForkLayout(cfg.Fork)
	if err != nil {
		return err
	}

	p, err := prover.NewAncestryProver(&prover.ProverConfig{
		Provider: prov,
		Layout:   layout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	targetSlot := types.Slot(c.Uint64("target-slot"))
	recentSlot := types.Slot(c.Uint64("recent-slot"))
	stateID := types.StateID(c.String("state-id"))

	proof, err := p.Prove(c.Context, targetSlot, recentSlot, stateID)
	if err != nil {
		return fmt.Errorf("failed to build proof: %w", err)
	}

	if cfg.StoreType != config.StoreTypeNone {
		proofStore, err := newStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = proofStore.Close() }()

		record := store.NewProofRecord(proof, targetSlot, recentSlot, stateID)
		if err := proofStore.SaveProof(record); err != nil {
			return fmt.Errorf("failed to store proof: %w", err)
		}
		logger.Sugar().Infow("Proof stored", "id", record.ID)
	}

	encoded, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode proof: %w", err)
	}

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write proof file: %w", err)
		}
		logger.Sugar().Infow("Proof written", "path", output)
		return nil
	}

	fmt.Println(string(encoded))
	return nil
}

func runVerify(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	layout, err := config.GetForkLayout(cfg.Fork)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.String("proof"))
	if err != nil {
		return fmt.Errorf("failed to read proof file: %w", err)
	}
	var proof types.AncestryProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return fmt.Errorf("failed to decode proof file: %w", err)
	}

	targetSlot := types.Slot(c.Uint64("target-slot"))
	recentSlot := types.Slot(c.Uint64("recent-slot"))

	var expectedRoot common.Hash
	if rootHex := c.String("expected-state-root"); rootHex != "" {
		expectedRoot = common.HexToHash(rootHex)
	} else {
		stateID := types.StateID(c.String("state-id"))
		if stateID == "" {
			return fmt.Errorf("either --expected-state-root or --state-id is required")
		}
		prov, err := newProvider(cfg, logger)
		if err != nil {
			return err
		}
		expectedRoot, err = prov.FetchStateRoot(c.Context, stateID)
		if err != nil {
			return fmt.Errorf("failed to fetch state root: %w", err)
		}
	}

	if prover.Verify(layout, &proof, targetSlot, recentSlot, expectedRoot) {
		fmt.Println("proof valid")
		return nil
	}
	return cli.Exit("proof invalid", 1)
}

func runList(c *cli.Context) error {
	proofStore, logger, err := openStore(c)
	if err != nil {
		return err
	}
	defer func() { _ = proofStore.Close() }()
	defer func() { _ = logger.Sync() }()

	records, err := proofStore.ListProofs()
	if err != nil {
		return fmt.Errorf("failed to list proofs: %w", err)
	}

	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode proof records: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func runDelete(c *cli.Context) error {
	proofStore, logger, err := openStore(c)
	if err != nil {
		return err
	}
	defer func() { _ = proofStore.Close() }()
	defer func() { _ = logger.Sync() }()

	id := c.String("id")
	if err := proofStore.DeleteProof(id); err != nil {
		return fmt.Errorf("failed to delete proof: %w", err)
	}
	logger.Sugar().Infow("Proof deleted", "id", id)
	return nil
}

// openStore builds the configured proof store for the archive commands,
// which cannot run without one.
func openStore(c *cli.Context) (store.IProofStore, *zap.Logger, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.StoreType == config.StoreTypeNone {
		return nil, nil, fmt.Errorf("a proof store is required: set --store-type")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, nil, err
	}

	proofStore, err := newStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return proofStore, logger, nil
}

// buildConfig assembles and validates the configuration from global flags.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Network = config.Network(c.String("network"))
	cfg.Fork = config.ForkName(c.String("fork"))
	cfg.StateProverURL = c.String("state-prover-url")
	cfg.LodestarURL = c.String("lodestar-url")
	cfg.StoreType = config.StoreType(c.String("store-type"))
	cfg.StorePath = c.String("store-path")
	cfg.RedisAddress = c.String("redis-address")
	cfg.Verbose = c.Bool("verbose")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newProvider selects the provider backend: the state prover sidecar
// when configured, a Lodestar node otherwise.
func newProvider(cfg *config.Config, logger *zap.Logger) (provider.IProofProvider, error) {
	if cfg.StateProverURL != "" {
		return stateprover.NewClient(&stateprover.ClientConfig{
			RPCURL:         cfg.StateProverURL,
			Network:        string(cfg.Network),
			Logger:         logger,
			Timeout:        cfg.RequestTimeout,
			RequestsPerSec: cfg.RequestsPerSec,
		})
	}
	return lodestar.NewClient(&lodestar.ClientConfig{
		RPCURL:         cfg.LodestarURL,
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})
}

func newStore(cfg *config.Config, logger *zap.Logger) (store.IProofStore, error) {
	switch cfg.StoreType {
	case config.StoreTypeMemory:
		return memorystore.NewMemoryStore(), nil
	case config.StoreTypeBadger:
		return badgerstore.NewBadgerStore(cfg.StorePath, logger)
	case config.StoreTypeRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{Address: cfg.RedisAddress}, logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}
