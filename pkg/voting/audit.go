package voting

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"go.dedis.ch/onet/v3/log"
)

// AuditReport is the outcome of verifying a list of votes.
type AuditReport struct {
	Total, Valid int
	// Accepted are the votes whose proof verified, in their original order.
	Accepted []*ballot.EncryptedVote
	// Rejected are the remaining votes, in their original order.
	Rejected []*ballot.EncryptedVote
}

// Audit verifies every vote against the public key it carries.
// The verifications run on the election's pool, when one is set.
func (e *Election) Audit(votes []*ballot.EncryptedVote) *AuditReport {
	results := e.pool.Parallelize(len(votes), func(i int) interface{} {
		v := votes[i]
		if v == nil {
			return false
		}
		return e.VerifyVote(v.VoterPublicKey, v)
	})

	report := &AuditReport{Total: len(votes)}
	for i, res := range results {
		if res.(bool) {
			report.Accepted = append(report.Accepted, votes[i])
		} else {
			report.Rejected = append(report.Rejected, votes[i])
		}
	}
	report.Valid = len(report.Accepted)
	log.Lvlf2("election %s: %d out of %d votes are valid", e.id, report.Valid, report.Total)
	return report
}

// TallyVerified audits votes and tallies only the accepted ones.
func (e *Election) TallyVerified(votes []*ballot.EncryptedVote) (*AuditReport, *saferith.Nat, error) {
	report := e.Audit(votes)
	result, err := e.Tally(report.Accepted)
	if err != nil {
		return report, nil, err
	}
	return report, result, nil
}
