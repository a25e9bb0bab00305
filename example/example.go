package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taurusgroup/vote-ledger/pkg/group"
	"github.com/taurusgroup/vote-ledger/pkg/ledger"
	"github.com/taurusgroup/vote-ledger/pkg/pool"
	"github.com/taurusgroup/vote-ledger/pkg/voting"
)

func Register(e *voting.Election, n int) ([]*group.KeyPair, error) {
	voters := make([]*group.KeyPair, 0, n)
	for i := 0; i < n; i++ {
		kp, err := e.RegisterVoter()
		if err != nil {
			return nil, err
		}
		voters = append(voters, kp)
	}
	fmt.Printf("registered %d voters\n", n)
	return voters, nil
}

func Cast(e *voting.Election, c *ledger.Chain, i int, kp *group.KeyPair, value int) error {
	v, err := e.CastVote(kp, value)
	if err != nil {
		return err
	}
	if !e.VerifyVote(kp.Public, v) {
		return errors.New("failed to verify vote")
	}
	c.AddVote(v)
	fmt.Printf("voter %d cast a vote\n", i)
	return nil
}

func Seal(ctx context.Context, c *ledger.Chain) error {
	b, err := c.SealPendingVotes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("block %d: %d votes, nonce %d, hash %s\n", c.Len()-1, b.Len(), b.Nonce(), b.Hash())
	return nil
}

func Tally(e *voting.Election, c *ledger.Chain) error {
	if !c.IsChainValid() {
		return errors.New("chain is not valid")
	}
	votes := c.Votes()
	report, result, err := e.TallyVerified(votes)
	if err != nil {
		return err
	}
	if report.Valid != len(votes) {
		return fmt.Errorf("%d votes rejected", len(report.Rejected))
	}
	fmt.Printf("%d votes, %s in favor\n", len(votes), result.Big())
	return nil
}

func All(ctx context.Context, e *voting.Election, c *ledger.Chain, values []int) error {
	if err := e.Initialize(); err != nil {
		return err
	}
	voters, err := Register(e, len(values))
	if err != nil {
		return err
	}
	// one block per vote
	for i, kp := range voters {
		if err = Cast(e, c, i, kp, values[i]); err != nil {
			return err
		}
		if err = Seal(ctx, c); err != nil {
			return err
		}
	}
	// a second vote is rejected
	if _, err = e.CastVote(voters[0], 1); !errors.Is(err, voting.ErrAlreadyVoted) {
		return fmt.Errorf("expected %v, got %v", voting.ErrAlreadyVoted, err)
	}
	return Tally(e, c)
}

func main() {
	pl := pool.NewPool(0)
	defer pl.TearDown()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e := voting.NewElection(voting.WithPool(pl))
	c, err := ledger.NewChain(ctx, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err = All(ctx, e, c, []int{1, 0, 1}); err != nil {
		fmt.Println(err)
	}
}
