package resolver

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-relay/internal/dns/domain"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// mapRepo is a HostsRepo stub backed by a plain map of canonical names.
type mapRepo map[string]netip.Addr

func (m mapRepo) Lookup(name string) (netip.Addr, bool) {
	addr, ok := m[name]
	return addr, ok
}

func testRepo() mapRepo {
	return mapRepo{
		"bupt.edu.cn": netip.MustParseAddr("211.68.69.240"),
		"v6.example":  netip.MustParseAddr("2001:db8::1"),
		"baidu.com":   hosts.Sentinel(),
	}
}

func question(name string, qtype domain.RRType, qclass domain.RRClass, offset int) domain.Question {
	return domain.Question{Offset: offset, Name: name, Type: qtype, Class: qclass}
}

func TestResolver_Classify_SingleQuestion(t *testing.T) {
	r := New(Options{Hosts: testRepo(), RecordTTL: 600})

	tests := []struct {
		name    string
		q       domain.Question
		outcome domain.Outcome
	}{
		{"A hit", question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12), domain.OutcomeAnswer},
		{"AAAA hit", question("v6.example", domain.RRTypeAAAA, domain.RRClassIN, 12), domain.OutcomeAnswer},
		{"blacklisted A", question("baidu.com", domain.RRTypeA, domain.RRClassIN, 12), domain.OutcomeBlock},
		{"blacklisted AAAA", question("baidu.com", domain.RRTypeAAAA, domain.RRClassIN, 12), domain.OutcomeBlock},
		{"blacklisted MX still blocked", question("baidu.com", domain.RRTypeMX, domain.RRClassIN, 12), domain.OutcomeBlock},
		{"absent name", question("apple.com", domain.RRTypeA, domain.RRClassIN, 12), domain.OutcomeForward},
		{"wrong family A for v6 entry", question("v6.example", domain.RRTypeA, domain.RRClassIN, 12), domain.OutcomeForward},
		{"wrong family AAAA for v4 entry", question("bupt.edu.cn", domain.RRTypeAAAA, domain.RRClassIN, 12), domain.OutcomeForward},
		{"unknown qtype", question("bupt.edu.cn", domain.RRTypeMX, domain.RRClassIN, 12), domain.OutcomeForward},
		{"non-IN class", question("bupt.edu.cn", domain.RRTypeA, domain.RRClassCH, 12), domain.OutcomeForward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Classify([]domain.Question{tt.q})
			assert.Equal(t, tt.outcome, d.Outcome)
		})
	}
}

func TestResolver_Classify_AnswerRecord(t *testing.T) {
	r := New(Options{Hosts: testRepo(), RecordTTL: 600})

	d := r.Classify([]domain.Question{question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12)})
	require.Equal(t, domain.OutcomeAnswer, d.Outcome)
	require.Len(t, d.Answers, 1)

	rr := d.Answers[0]
	assert.Equal(t, 12, rr.NameOffset)
	assert.Equal(t, domain.RRTypeA, rr.Type)
	assert.Equal(t, domain.RRClassIN, rr.Class)
	assert.Equal(t, uint32(600), rr.TTL)
	assert.Equal(t, netip.MustParseAddr("211.68.69.240"), rr.Addr)
	assert.Equal(t, uint16(4), rr.RDLength())
}

func TestResolver_Classify_MultiQuestion(t *testing.T) {
	r := New(Options{Hosts: testRepo(), RecordTTL: 600})

	tests := []struct {
		name    string
		qs      []domain.Question
		outcome domain.Outcome
		answers int
	}{
		{
			name: "all answerable",
			qs: []domain.Question{
				question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12),
				question("v6.example", domain.RRTypeAAAA, domain.RRClassIN, 33),
			},
			outcome: domain.OutcomeAnswer,
			answers: 2,
		},
		{
			name: "mixed hit and miss forwards whole query",
			qs: []domain.Question{
				question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12),
				question("apple.com", domain.RRTypeA, domain.RRClassIN, 33),
			},
			outcome: domain.OutcomeForward,
		},
		{
			name: "blocked beats miss",
			qs: []domain.Question{
				question("apple.com", domain.RRTypeA, domain.RRClassIN, 12),
				question("baidu.com", domain.RRTypeA, domain.RRClassIN, 31),
			},
			outcome: domain.OutcomeBlock,
		},
		{
			name: "blocked beats answered",
			qs: []domain.Question{
				question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12),
				question("baidu.com", domain.RRTypeA, domain.RRClassIN, 33),
			},
			outcome: domain.OutcomeBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Classify(tt.qs)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Len(t, d.Answers, tt.answers)
		})
	}
}

func TestResolver_DefaultTTL(t *testing.T) {
	r := New(Options{Hosts: testRepo()})
	d := r.Classify([]domain.Question{question("bupt.edu.cn", domain.RRTypeA, domain.RRClassIN, 12)})
	require.Equal(t, domain.OutcomeAnswer, d.Outcome)
	assert.Equal(t, uint32(600), d.Answers[0].TTL)
}
