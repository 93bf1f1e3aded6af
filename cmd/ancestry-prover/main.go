package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "ancestry-prover",
		Usage: "Prove that a beacon block is an ancestor of a more recent block",
		Description: `Builds and verifies compact merkle proofs that a target block's root
appears in the block-roots history buffer of a recent beacon state.

A proof can be checked offline by anyone holding the recent state root,
in constant time, without replaying the chain. Targets older than one
history window (8192 slots, ~27 hours) cannot be proven.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Value:   string(config.NetworkMainnet),
				Usage:   "Chain network: mainnet, sepolia, holesky",
				EnvVars: []string{config.EnvNetwork},
			},
			&cli.StringFlag{
				Name:    "fork",
				Value:   string(config.ForkCapella),
				Usage:   "Protocol fork selecting the state container layout",
				EnvVars: []string{config.EnvFork},
			},
			&cli.StringFlag{
				Name:    "state-prover-url",
				Usage:   "Base URL of a state prover sidecar service",
				EnvVars: []string{config.EnvStateProverURL},
			},
			&cli.StringFlag{
				Name:    "lodestar-url",
				Usage:   "Base URL of a Lodestar beacon node (used when no state prover is set)",
				EnvVars: []string{config.EnvLodestarURL},
			},
			&cli.StringFlag{
				Name:    "store-type",
				Value:   string(config.StoreTypeNone),
				Usage:   "Proof store backend: none, memory, badger, redis",
				EnvVars: []string{config.EnvStoreType},
			},
			&cli.StringFlag{
				Name:    "store-path",
				Usage:   "Data directory for the badger store",
				EnvVars: []string{config.EnvStorePath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port) for the redis store",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			proveCommand(),
			verifyCommand(),
			listCommand(),
			deleteCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
