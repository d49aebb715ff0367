// Package ledgertest provides an in-memory ledger.Client that simulates a
// CosmWasm chain hosting CW20 tokens and the lending protocol, so deployment and
// interaction workflows can run without a network.
package ledgertest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lendnet/orchestrator/internal/ledger"
)

var (
	// TokenWASM is the bytecode the simulator recognizes as a CW20 token class.
	TokenWASM = []byte("\x00asm\x01\x00\x00\x00cw20-token")
	// ProtocolWASM is the bytecode the simulator recognizes as the lending protocol class.
	ProtocolWASM = []byte("\x00asm\x01\x00\x00\x00lending-protocol")
)

type (
	codeKind int

	contract interface {
		execute(sender string, msg json.RawMessage) ([]subMsg, error)
		query(msg json.RawMessage) (any, error)
		clone() contract
	}

	subMsg struct {
		contract string
		msg      any
	}

	failRule struct {
		match func(ledger.Msg) bool
		err   error
	}

	// Ledger is safe for concurrent use, although the workflows never need it.
	Ledger struct {
		mu            sync.Mutex
		height        int64
		txCount       int
		nextCodeID    uint64
		nextContract  int
		codes         map[ledger.CodeID]codeKind
		contracts     map[string]contract
		codeOf        map[string]ledger.CodeID
		submitted     [][]ledger.Msg
		storedCodes   []ledger.CodeID
		failRules     []failRule
		dropEventRule func(ledger.Msg) bool
	}
)

const (
	kindUnknown codeKind = iota
	kindToken
	kindProtocol
)

var _ ledger.Client = (*Ledger)(nil)

// New returns an empty simulated chain.
func New() *Ledger {
	return &Ledger{
		height:     1,
		nextCodeID: 1,
		codes:      make(map[ledger.CodeID]codeKind),
		contracts:  make(map[string]contract),
		codeOf:     make(map[string]ledger.CodeID),
	}
}

// FailWhen makes every broadcast containing a message matching match fail with err
// before any state changes.
func (l *Ledger) FailWhen(match func(ledger.Msg) bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failRules = append(l.failRules, failRule{match: match, err: err})
}

// DropEventsWhen strips all events from the results of matching transactions,
// as a chain with an incompatible event layout would.
func (l *Ledger) DropEventsWhen(match func(ledger.Msg) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dropEventRule = match
}

// Submitted returns every successfully applied transaction's messages in order.
func (l *Ledger) Submitted() [][]ledger.Msg {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]ledger.Msg, len(l.submitted))
	copy(out, l.submitted)
	return out
}

// StoredCodes returns the code ids issued so far, in issue order.
func (l *Ledger) StoredCodes() []ledger.CodeID {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ledger.CodeID, len(l.storedCodes))
	copy(out, l.storedCodes)
	return out
}

// CodeIDOf returns the code id a contract was instantiated from.
func (l *Ledger) CodeIDOf(address string) (ledger.CodeID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.codeOf[address]
	return id, ok
}

// Broadcast applies msgs atomically: either every message succeeds or the chain
// state is left untouched.
func (l *Ledger) Broadcast(ctx context.Context, signer ledger.Signer, msgs ...ledger.Msg) (*ledger.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.New("no messages to broadcast")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range msgs {
		for _, rule := range l.failRules {
			if rule.match(msg) {
				return nil, rule.err
			}
		}
	}

	snapshot := l.snapshot()

	var events []ledger.Event
	for _, msg := range msgs {
		msgEvents, err := l.apply(signer.Address(), msg)
		if err != nil {
			l.restore(snapshot)
			return nil, fmt.Errorf("execution failed: %w", err)
		}
		events = append(events, msgEvents...)
	}

	l.height++
	l.txCount++
	l.submitted = append(l.submitted, msgs)

	result := &ledger.TxResult{
		TxHash:  fmt.Sprintf("%064X", l.txCount),
		Height:  l.height,
		GasUsed: int64(100_000 * len(msgs)),
		Events:  events,
	}
	if l.dropEventRule != nil && l.dropEventRule(msgs[0]) {
		result.Events = nil
	}

	return result, nil
}

// QuerySmart answers a read-only contract query.
func (l *Ledger) QuerySmart(ctx context.Context, address string, query any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.contracts[address]
	if !ok {
		return fmt.Errorf("contract %s not found", address)
	}

	response, err := c.query(raw)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return json.Unmarshal(encoded, out)
}

func (l *Ledger) apply(sender string, msg ledger.Msg) ([]ledger.Event, error) {
	switch m := msg.(type) {
	case ledger.MsgStoreCode:
		return l.storeCode(m)
	case ledger.MsgInstantiateContract:
		return l.instantiate(m)
	case ledger.MsgExecuteContract:
		if m.Sender != sender {
			return nil, fmt.Errorf("message sender %s does not match signer %s", m.Sender, sender)
		}
		return l.execute(m.Sender, m.Contract, m.Msg)
	default:
		return nil, fmt.Errorf("unsupported message %T", msg)
	}
}

func (l *Ledger) storeCode(m ledger.MsgStoreCode) ([]ledger.Event, error) {
	if len(m.WASMByteCode) == 0 {
		return nil, errors.New("empty wasm code")
	}

	kind := kindUnknown
	switch {
	case bytes.Equal(m.WASMByteCode, TokenWASM):
		kind = kindToken
	case bytes.Equal(m.WASMByteCode, ProtocolWASM):
		kind = kindProtocol
	}

	id := ledger.CodeID(l.nextCodeID)
	l.nextCodeID++
	l.codes[id] = kind
	l.storedCodes = append(l.storedCodes, id)

	return []ledger.Event{
		event("message", "action", ledger.TypeURLStoreCode, "sender", m.Sender),
		event("store_code", "code_id", id.String()),
	}, nil
}

func (l *Ledger) instantiate(m ledger.MsgInstantiateContract) ([]ledger.Event, error) {
	kind, ok := l.codes[m.CodeID]
	if !ok {
		return nil, fmt.Errorf("code id %d not found", m.CodeID)
	}
	if m.Label == "" {
		return nil, errors.New("label is required")
	}

	l.nextContract++
	address := fmt.Sprintf("terra1simcontract%04d", l.nextContract)

	var (
		c   contract
		err error
	)
	switch kind {
	case kindToken:
		c, err = newToken(m.Msg)
	case kindProtocol:
		c, err = newProtocol(m.Msg)
	default:
		err = fmt.Errorf("code id %d is not a recognized contract", m.CodeID)
	}
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}

	l.contracts[address] = c
	l.codeOf[address] = m.CodeID

	return []ledger.Event{
		event("message", "action", ledger.TypeURLInstantiateContract, "sender", m.Sender),
		event("instantiate", "_contract_address", address, "code_id", m.CodeID.String()),
	}, nil
}

func (l *Ledger) execute(sender, address string, msg json.RawMessage) ([]ledger.Event, error) {
	c, ok := l.contracts[address]
	if !ok {
		return nil, fmt.Errorf("contract %s not found", address)
	}

	subMsgs, err := c.execute(sender, msg)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", address, err)
	}

	events := []ledger.Event{event("execute", "_contract_address", address)}
	for _, sub := range subMsgs {
		raw, err := json.Marshal(sub.msg)
		if err != nil {
			return nil, err
		}
		subEvents, err := l.execute(address, sub.contract, raw)
		if err != nil {
			return nil, err
		}
		events = append(events, subEvents...)
	}

	return events, nil
}

type snapshot struct {
	nextCodeID   uint64
	nextContract int
	codes        map[ledger.CodeID]codeKind
	contracts    map[string]contract
	codeOf       map[string]ledger.CodeID
	storedCodes  int
}

func (l *Ledger) snapshot() snapshot {
	s := snapshot{
		nextCodeID:   l.nextCodeID,
		nextContract: l.nextContract,
		codes:        make(map[ledger.CodeID]codeKind, len(l.codes)),
		contracts:    make(map[string]contract, len(l.contracts)),
		codeOf:       make(map[string]ledger.CodeID, len(l.codeOf)),
		storedCodes:  len(l.storedCodes),
	}
	for k, v := range l.codes {
		s.codes[k] = v
	}
	for k, v := range l.contracts {
		s.contracts[k] = v.clone()
	}
	for k, v := range l.codeOf {
		s.codeOf[k] = v
	}
	return s
}

func (l *Ledger) restore(s snapshot) {
	l.nextCodeID = s.nextCodeID
	l.nextContract = s.nextContract
	l.codes = s.codes
	l.contracts = s.contracts
	l.codeOf = s.codeOf
	l.storedCodes = l.storedCodes[:s.storedCodes]
}

func event(eventType string, kv ...string) ledger.Event {
	e := ledger.Event{Type: eventType}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Attributes = append(e.Attributes, ledger.Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return e
}
