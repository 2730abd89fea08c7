// Package resolver implements the local answering policy: given the parsed
// questions of one query and the hosts table, decide whether the query is
// answered locally, refused as blacklisted, or forwarded upstream as a whole.
package resolver

import (
	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/domain"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// Resolver classifies queries against a preloaded hosts table.
type Resolver struct {
	hosts  HostsRepo
	ttl    uint32
	logger log.Logger
}

// Options configures a Resolver.
type Options struct {
	Hosts HostsRepo
	// RecordTTL is the TTL stamped on synthesized answer records, in seconds.
	RecordTTL uint32
	Logger    log.Logger
}

// New constructs a Resolver.
func New(opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.RecordTTL == 0 {
		opts.RecordTTL = 600
	}
	return &Resolver{
		hosts:  opts.Hosts,
		ttl:    opts.RecordTTL,
		logger: opts.Logger,
	}
}

// classify determines the verdict for a single question and, when it is
// answerable, builds the answer record.
func (r *Resolver) classify(q domain.Question) (domain.Classification, domain.ResourceRecord) {
	// Non-Internet classes are never answered locally.
	if q.Class != domain.RRClassIN {
		return domain.ClassMiss, domain.ResourceRecord{}
	}

	addr, found := r.hosts.Lookup(q.Name)
	if !found {
		return domain.ClassMiss, domain.ResourceRecord{}
	}

	// A blacklisted name is refused regardless of the requested type.
	if hosts.IsSentinel(addr) {
		return domain.ClassBlocked, domain.ResourceRecord{}
	}

	switch q.Type {
	case domain.RRTypeA:
		if !addr.Is4() {
			return domain.ClassMiss, domain.ResourceRecord{}
		}
	case domain.RRTypeAAAA:
		if addr.Is4() {
			return domain.ClassMiss, domain.ResourceRecord{}
		}
	default:
		// Only address queries are locally answerable.
		return domain.ClassMiss, domain.ResourceRecord{}
	}

	rr, err := domain.NewResourceRecord(q, r.ttl, addr)
	if err != nil {
		r.logger.Warn(map[string]any{
			"name":  q.Name,
			"error": err.Error(),
		}, "Could not build local answer record")
		return domain.ClassMiss, domain.ResourceRecord{}
	}
	return domain.ClassAnswered, rr
}

// Classify determines the aggregate outcome for a whole query. The query is
// atomic: any blocked question refuses it entirely, any miss forwards it
// entirely, and only a fully answerable query is answered locally. Blocked
// takes precedence over miss.
func (r *Resolver) Classify(questions []domain.Question) domain.Decision {
	answers := make([]domain.ResourceRecord, 0, len(questions))

	for _, q := range questions {
		class, rr := r.classify(q)

		r.logger.Debug(map[string]any{
			"name":           q.Name,
			"type":           q.Type.String(),
			"class":          q.Class.String(),
			"classification": class.String(),
		}, "Classified question")

		switch class {
		case domain.ClassBlocked:
			return domain.Decision{Outcome: domain.OutcomeBlock}
		case domain.ClassAnswered:
			answers = append(answers, rr)
		}
	}

	if len(answers) == len(questions) {
		return domain.Decision{Outcome: domain.OutcomeAnswer, Answers: answers}
	}
	return domain.Decision{Outcome: domain.OutcomeForward}
}
