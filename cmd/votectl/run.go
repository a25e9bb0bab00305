package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/config"
	"github.com/taurusgroup/vote-ledger/pkg/group"
	"github.com/taurusgroup/vote-ledger/pkg/ledger"
	"github.com/taurusgroup/vote-ledger/pkg/pool"
	"github.com/taurusgroup/vote-ledger/pkg/voting"
	"go.dedis.ch/onet/v3/log"
	"gopkg.in/urfave/cli.v1"
)

func runElection(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, err = run(context.Background(), cfg, os.Stdout)
	return err
}

// result summarizes a completed run.
type result struct {
	Blocks     int
	Votes      int
	Valid      int
	Yes        *saferith.Nat
	ChainValid bool
}

// run registers cfg.Voters voters, and seals one block per cast vote.
func run(ctx context.Context, cfg *config.Config, w io.Writer) (*result, error) {
	pl := pool.NewPool(cfg.Workers)
	defer pl.TearDown()

	e := voting.NewElection(voting.WithPool(pl), voting.WithKeyBits(cfg.KeyBits))
	log.Lvl1("election", e.ID(), ": generating a", cfg.KeyBits, "bit key")
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	chain, err := ledger.NewChain(ctx, cfg.Difficulty, ledger.WithWorkers(pl.Workers()))
	if err != nil {
		return nil, err
	}

	voters := make([]*group.KeyPair, cfg.Voters)
	for i := range voters {
		if voters[i], err = e.RegisterVoter(); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(w, "Registered %d voters\n", len(voters))

	for i, value := range cfg.Votes {
		v, err := e.CastVote(voters[i], value)
		if err != nil {
			return nil, fmt.Errorf("voter %d: %w", i, err)
		}
		chain.AddVote(v)

		sealCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.MiningTimeout.Duration > 0 {
			sealCtx, cancel = context.WithTimeout(ctx, cfg.MiningTimeout.Duration)
		}
		fmt.Fprintf(w, "Mining block %d...\n", chain.Len())
		_, err = chain.SealPendingVotes(sealCtx)
		cancel()
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(w, "\nBlockchain contents:")
	for i, b := range chain.Blocks() {
		fmt.Fprintf(w, "Block %d Hash: %s\nBlock %d Previous Hash: %s\n\n", i, b.Hash(), i, b.PreviousHash())
	}

	votes := chain.Votes()
	report, yes, err := e.TallyVerified(votes)
	if err != nil {
		return nil, err
	}
	for _, v := range report.Rejected {
		fmt.Fprintf(w, "Invalid vote from %x\n", v.VoterPublicKey.Bytes())
	}
	res := &result{
		Blocks:     chain.Len(),
		Votes:      len(votes),
		Valid:      report.Valid,
		Yes:        yes,
		ChainValid: chain.IsChainValid(),
	}
	fmt.Fprintf(w, "Verification complete. %d out of %d votes are valid.\n", res.Valid, res.Votes)
	fmt.Fprintf(w, "Is blockchain valid? %t\n", res.ChainValid)
	fmt.Fprintf(w, "\nTotal 'Yes' votes: %s\n", res.Yes.Big())
	if !res.ChainValid {
		return res, errors.New("chain integrity check failed")
	}
	return res, nil
}
