// Package merge applies an Op to the database under the invariants of
// the data model: Last-Write-Wins per scalar field, add-wins/remove-wins
// per set-valued tuple, and acyclicity for the blocks relation.
package merge

// Kind classifies what happened when an Op was run through the apply
// pipeline.
type Kind string

const (
	KindApplied   Kind = "applied"
	KindDeduped   Kind = "deduped"
	KindDiscarded Kind = "discarded"
	KindRejected  Kind = "rejected"
)

// Outcome is the result of Apply/ApplyWithLog.
type Outcome struct {
	Kind   Kind
	Reason string // set for Discarded
	Err    error  // set for Rejected
}

func applied() Outcome                { return Outcome{Kind: KindApplied} }
func discarded(reason string) Outcome { return Outcome{Kind: KindDiscarded, Reason: reason} }
func rejected(err error) Outcome      { return Outcome{Kind: KindRejected, Err: err} }
