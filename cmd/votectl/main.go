// votectl runs an election: it registers voters, casts their encrypted votes,
// seals them into a proof-of-work chain, audits the chain and prints the tally.
package main

import (
	"os"

	"github.com/taurusgroup/vote-ledger/internal/config"
	"go.dedis.ch/onet/v3/log"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()
	app.Name = "votectl"
	app.Usage = "Runs an election with homomorphic tallying over a proof-of-work vote ledger"
	app.Version = "0.1"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "debug, d",
			Value: 0,
			Usage: "debug-level: 1 for terse, 5 for maximal",
		},
	}
	runFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML file describing the election",
		},
		cli.IntFlag{
			Name:  "difficulty",
			Usage: "number of leading zeros of every block hash",
		},
		cli.IntFlag{
			Name:  "voters",
			Usage: "number of voters to register",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of mining goroutines, one per CPU if 0",
		},
		cli.IntFlag{
			Name:  "key-bits",
			Usage: "size of the election modulus",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "run an election",
			Flags:   runFlags,
			Action:  runElection,
		},
		{
			Name:   "config",
			Usage:  "print the default configuration",
			Action: printConfig,
		},
	}
	app.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.Int("debug"))
		return nil
	}
	log.ErrFatal(app.Run(os.Args))
}

func printConfig(*cli.Context) error {
	return config.Default().Write(os.Stdout)
}

// loadConfig reads the configuration file, if any, and applies the flags over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("difficulty") {
		cfg.Difficulty = c.Int("difficulty")
	}
	if c.IsSet("voters") {
		cfg.Voters = c.Int("voters")
		if len(cfg.Votes) > cfg.Voters {
			cfg.Votes = cfg.Votes[:cfg.Voters]
		}
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("key-bits") {
		cfg.KeyBits = c.Int("key-bits")
	}
	return cfg, cfg.Validate()
}
