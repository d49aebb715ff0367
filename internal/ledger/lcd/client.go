// Package lcd implements ledger.Client against the REST (LCD) gateway of a
// Cosmos SDK chain running the wasm module.
package lcd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/logger"
)

const (
	accountPath    = "/cosmos/auth/v1beta1/accounts/{address}"
	broadcastPath  = "/cosmos/tx/v1beta1/txs"
	txPath         = "/cosmos/tx/v1beta1/txs/{hash}"
	smartQueryPath = "/cosmwasm/wasm/v1/contract/{address}/smart/{query}"
	storeQueryPath = "/terra/wasm/v1beta1/contracts/{address}/store"

	defaultRequestTimeout = 30 * time.Second
)

var errTxPending = errors.New("transaction not yet included")

type (
	Options struct {
		BaseURL        string
		ChainID        string
		Dialect        ledger.Dialect
		GasLimit       uint64
		GasPrice       float64
		FeeDenom       string
		PollAttempts   uint
		PollInterval   time.Duration
		RequestTimeout time.Duration
	}

	// Client talks to an LCD endpoint. Transactions from one signer must not be
	// broadcast concurrently: the sequence number is read fresh before each one.
	Client struct {
		http    *resty.Client
		chainID string
		dialect ledger.Dialect
		fee     fee
		poll    []retry.Option
		logger  *slog.Logger
	}
)

var _ ledger.Client = (*Client)(nil)

// NewClient creates an LCD client for one chain.
func NewClient(opts Options) *Client {
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	dialect := opts.Dialect
	if dialect == "" {
		dialect = ledger.DialectCosmWasmV1
	}

	attempts := opts.PollAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		chainID: opts.ChainID,
		dialect: dialect,
		fee:     feeFor(opts.GasLimit, opts.GasPrice, opts.FeeDenom),
		poll: []retry.Option{
			retry.Attempts(attempts),
			retry.Delay(opts.PollInterval),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool { return errors.Is(err, errTxPending) }),
		},
		logger: logger.Named("lcd_client"),
	}
}

// Dialect is the wasm module flavour the client encodes for.
func (c *Client) Dialect() ledger.Dialect {
	return c.dialect
}

// Broadcast signs and broadcasts msgs in sync mode, then waits for the
// transaction to be included and checks its execution code.
func (c *Client) Broadcast(ctx context.Context, signer ledger.Signer, msgs ...ledger.Msg) (*ledger.TxResult, error) {
	if len(msgs) == 0 {
		return nil, errors.New("no messages to broadcast")
	}

	account, err := c.account(ctx, signer.Address())
	if err != nil {
		return nil, err
	}

	txBytes, txHash, err := buildSignedTx(signer, c.dialect, c.chainID, account, c.fee, msgs)
	if err != nil {
		return nil, err
	}

	c.logger.
		With("tx_hash", txHash).
		With("sequence", account.Sequence).
		With("msgs", ledger.MessageNames(msgs)).
		Debug("broadcasting transaction")

	var envelope txResponseEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(broadcastRequest{TxBytes: txBytes, Mode: broadcastModeSync}).
		SetResult(&envelope).
		Post(broadcastPath)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("broadcast rejected with status %d: %s", resp.StatusCode(), errorMessage(resp))
	}
	if envelope.TxResponse.Code != 0 {
		return nil, fmt.Errorf("transaction %s failed check: code %d (%s): %s",
			txHash, envelope.TxResponse.Code, envelope.TxResponse.Codespace, envelope.TxResponse.RawLog)
	}
	if envelope.TxResponse.TxHash != "" {
		txHash = envelope.TxResponse.TxHash
	}

	return c.waitForTx(ctx, txHash)
}

// QuerySmart runs a read-only smart query and decodes the contract's response
// into out.
func (c *Client) QuerySmart(ctx context.Context, contract string, query any, out any) error {
	payload, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	var (
		data json.RawMessage
		resp *resty.Response
	)
	if c.dialect == ledger.DialectTerraV1Beta1 {
		var result storeQueryResponse
		resp, err = c.http.R().
			SetContext(ctx).
			SetPathParam("address", contract).
			SetQueryParam("query_msg", encoded).
			SetResult(&result).
			Get(storeQueryPath)
		data = result.QueryResult
	} else {
		var result smartQueryResponse
		resp, err = c.http.R().
			SetContext(ctx).
			SetPathParam("address", contract).
			SetPathParam("query", encoded).
			SetResult(&result).
			Get(smartQueryPath)
		data = result.Data
	}
	if err != nil {
		return fmt.Errorf("failed to query contract %s: %w", contract, err)
	}
	if resp.IsError() {
		return fmt.Errorf("query of contract %s failed with status %d: %s", contract, resp.StatusCode(), errorMessage(resp))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode query response from %s: %w", contract, err)
	}

	return nil
}

func (c *Client) account(ctx context.Context, address string) (signerAccount, error) {
	var result accountResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&result).
		Get(accountPath)
	if err != nil {
		return signerAccount{}, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	if resp.IsError() {
		return signerAccount{}, fmt.Errorf("account %s lookup failed with status %d: %s", address, resp.StatusCode(), errorMessage(resp))
	}

	account, err := result.signerAccount()
	if err != nil {
		return signerAccount{}, fmt.Errorf("failed to parse account %s: %w", address, err)
	}

	return account, nil
}

func (c *Client) waitForTx(ctx context.Context, txHash string) (*ledger.TxResult, error) {
	var envelope txResponseEnvelope

	err := retry.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("hash", txHash).
			SetResult(&envelope).
			Get(txPath)
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to look up transaction %s: %w", txHash, err))
		}
		if resp.StatusCode() == http.StatusNotFound || (resp.IsError() && resp.StatusCode() < http.StatusInternalServerError) {
			return errTxPending
		}
		if resp.IsError() {
			return retry.Unrecoverable(fmt.Errorf("transaction %s lookup failed with status %d: %s", txHash, resp.StatusCode(), errorMessage(resp)))
		}
		return nil
	}, append(c.poll, retry.Context(ctx))...)
	if err != nil {
		if errors.Is(err, errTxPending) {
			return nil, fmt.Errorf("transaction %s was not included in time: %w", txHash, err)
		}
		return nil, err
	}

	result := envelope.TxResponse.toResult()
	if result.TxHash == "" {
		result.TxHash = txHash
	}
	if result.Code != 0 {
		return result, fmt.Errorf("transaction %s failed: code %d (%s): %s",
			txHash, result.Code, envelope.TxResponse.Codespace, result.RawLog)
	}

	c.logger.
		With("tx_hash", result.TxHash).
		With("height", result.Height).
		With("gas_used", result.GasUsed).
		Debug("transaction included")

	return result, nil
}

func errorMessage(resp *resty.Response) string {
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return resp.String()
}
