package contracts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lendnet/orchestrator/internal/ledger"
)

// Invoker executes messages against existing contracts and reads their state.
type Invoker struct {
	submitter *Submitter
	client    ledger.Client
}

func NewInvoker(submitter *Submitter, client ledger.Client) *Invoker {
	return &Invoker{submitter: submitter, client: client}
}

// Invoke executes payload on contract and returns the raw transaction result.
func (i *Invoker) Invoke(ctx context.Context, signer ledger.Signer, contract string, payload any) (*ledger.TxResult, error) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execute message for %s: %w", contract, err)
	}

	return i.submitter.Submit(ctx, signer, ledger.MsgExecuteContract{
		Sender:   signer.Address(),
		Contract: contract,
		Msg:      msg,
	})
}

// Query runs a read-only smart query. Nothing is signed or submitted.
func (i *Invoker) Query(ctx context.Context, contract string, query any, out any) error {
	if err := i.client.QuerySmart(ctx, contract, query, out); err != nil {
		return fmt.Errorf("failed to query contract %s: %w", contract, err)
	}

	return nil
}
