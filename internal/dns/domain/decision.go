package domain

// Classification is the per-question verdict of the local resolver.
type Classification uint8

const (
	// ClassAnswered means the name is in the hosts table and the stored address
	// matches the requested family.
	ClassAnswered Classification = iota
	// ClassBlocked means the name is in the hosts table with the blacklist
	// sentinel address.
	ClassBlocked
	// ClassMiss means the name is absent, stored with the wrong address family
	// for the requested type, or the question is not locally answerable at all.
	ClassMiss
)

// String returns the textual representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassAnswered:
		return "answered"
	case ClassBlocked:
		return "blocked"
	default:
		return "miss"
	}
}

// Outcome is the aggregate verdict over a whole query. A query is never split:
// it is answered, refused, or forwarded as a unit.
type Outcome uint8

const (
	// OutcomeAnswer means every question classified as answered; a positive
	// reply is synthesized locally.
	OutcomeAnswer Outcome = iota
	// OutcomeBlock means at least one question hit the blacklist sentinel; the
	// whole query gets a negative NXDOMAIN reply. Takes precedence over misses.
	OutcomeBlock
	// OutcomeForward means at least one question missed and none were blocked;
	// the whole query goes upstream.
	OutcomeForward
)

// String returns the textual representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAnswer:
		return "answer"
	case OutcomeBlock:
		return "block"
	default:
		return "forward"
	}
}

// Decision carries the aggregate outcome together with the answer records to
// synthesize when the outcome is OutcomeAnswer.
type Decision struct {
	Outcome Outcome
	Answers []ResourceRecord
}
