// Package relay implements the two control loops that drive the relay: the
// forward loop terminating client queries and the reply loop demultiplexing
// upstream answers. The loops run independently and share nothing but the
// transaction table.
package relay

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/domain"
	"github.com/haukened/rr-relay/internal/dns/gateways/wire"
)

// Engine owns the forward and reply loops.
type Engine struct {
	client   ClientEndpoint
	upstream UpstreamEndpoint
	codec    wire.Codec
	resolver Classifier
	table    TransactionTable
	logger   log.Logger
	hooks    Hooks

	reapInterval time.Duration
}

// Options configures an Engine.
type Options struct {
	Client   ClientEndpoint
	Upstream UpstreamEndpoint
	Codec    wire.Codec
	Resolver Classifier
	Table    TransactionTable
	Logger   log.Logger
	Hooks    Hooks
	// ReapInterval is how often aged transactions are collected. Zero selects
	// a 2 second default.
	ReapInterval time.Duration
}

// New constructs an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Hooks == nil {
		opts.Hooks = NoopHooks{}
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = 2 * time.Second
	}
	return &Engine{
		client:       opts.Client,
		upstream:     opts.Upstream,
		codec:        opts.Codec,
		resolver:     opts.Resolver,
		table:        opts.Table,
		logger:       opts.Logger,
		hooks:        opts.Hooks,
		reapInterval: opts.ReapInterval,
	}
}

// Run starts both loops and the transaction reaper, then blocks until ctx is
// cancelled. Shutdown closes both endpoints, which unblocks the loops.
func (e *Engine) Run(ctx context.Context) error {
	e.table.StartReaper(ctx, e.reapInterval)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.forwardLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.replyLoop(ctx)
	}()

	e.logger.Info(map[string]any{
		"client":   e.client.Address(),
		"upstream": e.upstream.Address(),
	}, "Relay started")

	<-ctx.Done()

	if err := e.client.Close(); err != nil {
		e.logger.Warn(map[string]any{"error": err.Error()}, "Error closing client endpoint")
	}
	if err := e.upstream.Close(); err != nil {
		e.logger.Warn(map[string]any{"error": err.Error()}, "Error closing upstream endpoint")
	}
	wg.Wait()

	e.logger.Info(nil, "Relay stopped")
	return nil
}

// forwardLoop receives client queries and answers, refuses, or forwards them.
func (e *Engine) forwardLoop(ctx context.Context) {
	for {
		data, addr, err := e.client.Receive()
		if err != nil {
			if done(ctx, err) {
				return
			}
			e.logger.Warn(map[string]any{"error": err.Error()}, "Failed to read client datagram")
			continue
		}
		e.handleQuery(data, addr)
	}
}

// replyLoop receives upstream replies and relays them to their clients.
func (e *Engine) replyLoop(ctx context.Context) {
	for {
		data, err := e.upstream.Receive()
		if err != nil {
			if done(ctx, err) {
				return
			}
			e.logger.Warn(map[string]any{"error": err.Error()}, "Failed to read upstream datagram")
			continue
		}
		e.handleReply(data)
	}
}

// done reports whether a receive error means the loop should exit.
func done(ctx context.Context, err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// handleQuery drives one iteration of the forward path: decode, classify, and
// then answer locally, refuse, or rewrite the ID and forward.
func (e *Engine) handleQuery(data []byte, addr *net.UDPAddr) {
	msg, err := e.codec.DecodeQuery(data)
	if err != nil {
		e.hooks.ParseError(addr, err)
		e.logger.Debug(map[string]any{
			"client": addr.String(),
			"size":   len(data),
			"error":  err.Error(),
		}, "Dropping undecodable client datagram")
		return
	}

	e.hooks.QueryReceived(addr, msg.Header.ID, len(msg.Questions))

	decision := e.resolver.Classify(msg.Questions)
	e.hooks.Classified(addr, msg.Header.ID, decision.Outcome)

	switch decision.Outcome {
	case domain.OutcomeBlock:
		e.sendLocalReply(msg, nil, domain.RCodeNXDomain, addr)
	case domain.OutcomeAnswer:
		e.sendLocalReply(msg, decision.Answers, domain.RCodeNoError, addr)
	case domain.OutcomeForward:
		e.forward(data, msg.Header.ID, addr)
	}
}

// sendLocalReply synthesizes a reply out of the decoded query: the original ID
// and question section, the given answers, and the given response code.
func (e *Engine) sendLocalReply(msg domain.Message, answers []domain.ResourceRecord, rcode domain.RCode, addr *net.UDPAddr) {
	msg.Header.SetResponse()
	msg.Header.SetRCode(rcode)
	msg.Header.Flags |= domain.FlagRA
	msg.Header.ANCount = uint16(len(answers))
	msg.Header.NSCount = 0
	msg.Header.ARCount = 0
	msg.Answers = answers

	data, err := e.codec.EncodeMessage(msg)
	if err != nil {
		e.logger.Error(map[string]any{
			"client": addr.String(),
			"id":     msg.Header.ID,
			"error":  err.Error(),
		}, "Failed to encode local reply")
		return
	}

	if err := e.client.Send(data, addr); err != nil {
		e.logger.Warn(map[string]any{
			"client": addr.String(),
			"id":     msg.Header.ID,
			"error":  err.Error(),
		}, "Failed to send local reply")
		return
	}

	e.logger.Debug(map[string]any{
		"client":  addr.String(),
		"id":      msg.Header.ID,
		"rcode":   rcode.String(),
		"answers": len(answers),
	}, "Answered query locally")
}

// forward rewrites the query's transaction ID to a freshly minted one and
// sends the otherwise byte-identical datagram upstream.
func (e *Engine) forward(data []byte, clientID uint16, addr *net.UDPAddr) {
	newID := e.table.Insert(clientID, addr)
	if err := e.codec.RewriteID(data, newID); err != nil {
		// Undecodable here is impossible after DecodeQuery succeeded; consume
		// the entry so it does not linger until the reaper.
		e.table.TakeByID(newID)
		e.logger.Error(map[string]any{"error": err.Error()}, "Failed to rewrite query ID")
		return
	}

	if err := e.upstream.Send(data); err != nil {
		e.table.TakeByID(newID)
		e.logger.Warn(map[string]any{
			"client": addr.String(),
			"id":     newID,
			"error":  err.Error(),
		}, "Failed to forward query upstream")
		return
	}

	e.logger.Debug(map[string]any{
		"client":    addr.String(),
		"client_id": clientID,
		"id":        newID,
	}, "Forwarded query upstream")
}

// handleReply drives one iteration of the reply path: correlate the upstream
// reply by ID, restore the client's original ID, and relay the payload
// byte-for-byte.
func (e *Engine) handleReply(data []byte) {
	header, err := e.codec.PeekHeader(data)
	if err != nil {
		e.hooks.ParseError(nil, err)
		e.logger.Debug(map[string]any{
			"size":  len(data),
			"error": err.Error(),
		}, "Dropping undecodable upstream datagram")
		return
	}

	entry, ok := e.table.TakeByID(header.ID)
	if !ok {
		e.hooks.TransactionMiss(header.ID)
		e.logger.Debug(map[string]any{
			"id": header.ID,
		}, "Dropping upstream reply with no matching transaction")
		return
	}

	if err := e.codec.RewriteID(data, entry.ClientID); err != nil {
		e.logger.Error(map[string]any{"error": err.Error()}, "Failed to restore client ID")
		return
	}

	if err := e.client.Send(data, entry.ClientAddr); err != nil {
		e.logger.Warn(map[string]any{
			"client": entry.ClientAddr.String(),
			"id":     entry.ClientID,
			"error":  err.Error(),
		}, "Failed to relay reply to client")
		return
	}

	e.hooks.ReplyRelayed(entry.ClientAddr, entry.ClientID, len(data))

	e.logger.Debug(map[string]any{
		"client":    entry.ClientAddr.String(),
		"client_id": entry.ClientID,
		"rcode":     header.RCode().String(),
		"size":      len(data),
	}, "Relayed upstream reply")
}
