// Package ledger describes the CosmWasm ledger the orchestrator talks to: the
// signer and client collaborators, the wasm messages it submits and the results
// it gets back.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type (
	// CodeID identifies an uploaded contract class. Zero is never issued.
	CodeID uint64

	// Signer is an account able to authorize transactions.
	Signer interface {
		// Address returns the bech32 account address.
		Address() string
		// PubKey returns the 33-byte compressed secp256k1 public key.
		PubKey() []byte
		// Sign returns the 64-byte r||s signature over sha256(signBytes).
		Sign(signBytes []byte) ([]byte, error)
	}

	// Client submits transactions and answers read-only contract queries.
	Client interface {
		// Broadcast signs msgs as signer, broadcasts them as one transaction and
		// waits until it is included in a block.
		Broadcast(ctx context.Context, signer Signer, msgs ...Msg) (*TxResult, error)
		// QuerySmart runs a read-only smart query against contract and decodes the
		// response into out.
		QuerySmart(ctx context.Context, contract string, query any, out any) error
	}

	// Msg is a message that can be placed in a transaction body.
	Msg interface {
		TypeURL() string
	}

	MsgStoreCode struct {
		Sender       string
		WASMByteCode []byte
	}

	MsgInstantiateContract struct {
		Sender string
		Admin  string
		CodeID CodeID
		Label  string
		Msg    json.RawMessage
	}

	MsgExecuteContract struct {
		Sender   string
		Contract string
		Msg      json.RawMessage
	}
)

// Dialect names the wasm module flavour a chain runs. Message type URLs, field
// layouts and query routes differ between them.
type Dialect string

const (
	// DialectCosmWasmV1 is the wasmd module (cosmwasm.wasm.v1), used by Terra 2 and LocalTerra.
	DialectCosmWasmV1 Dialect = "cosmwasm-v1"
	// DialectTerraV1Beta1 is the Terra Classic module (terra.wasm.v1beta1), used by bombay-12.
	DialectTerraV1Beta1 Dialect = "terra-v1beta1"
)

// Dialects lists every supported dialect.
func Dialects() []Dialect {
	return []Dialect{DialectCosmWasmV1, DialectTerraV1Beta1}
}

// ParseDialect validates name. An empty name selects DialectCosmWasmV1.
func ParseDialect(name string) (Dialect, error) {
	if name == "" {
		return DialectCosmWasmV1, nil
	}
	for _, d := range Dialects() {
		if string(d) == name {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown wasm dialect %q (expected %s or %s)", name, DialectCosmWasmV1, DialectTerraV1Beta1)
}

const (
	TypeURLStoreCode           = "/cosmwasm.wasm.v1.MsgStoreCode"
	TypeURLInstantiateContract = "/cosmwasm.wasm.v1.MsgInstantiateContract"
	TypeURLExecuteContract     = "/cosmwasm.wasm.v1.MsgExecuteContract"
)

func (MsgStoreCode) TypeURL() string           { return TypeURLStoreCode }
func (MsgInstantiateContract) TypeURL() string { return TypeURLInstantiateContract }
func (MsgExecuteContract) TypeURL() string     { return TypeURLExecuteContract }

func (c CodeID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// MessageNames returns the short type name of every message, for logs and errors.
func MessageNames(msgs []Msg) []string {
	names := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		url := msg.TypeURL()
		for i := len(url) - 1; i >= 0; i-- {
			if url[i] == '.' {
				url = url[i+1:]
				break
			}
		}
		names = append(names, url)
	}
	return names
}
