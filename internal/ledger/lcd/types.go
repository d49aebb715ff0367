package lcd

import (
	"encoding/json"
	"strconv"

	"github.com/lendnet/orchestrator/internal/ledger"
)

const broadcastModeSync = "BROADCAST_MODE_SYNC"

type (
	accountResponse struct {
		Account struct {
			Type          string `json:"@type"`
			Address       string `json:"address"`
			AccountNumber string `json:"account_number"`
			Sequence      string `json:"sequence"`
		} `json:"account"`
	}

	broadcastRequest struct {
		TxBytes []byte `json:"tx_bytes"`
		Mode    string `json:"mode"`
	}

	txResponseEnvelope struct {
		TxResponse txResponse `json:"tx_response"`
	}

	txResponse struct {
		Height    string      `json:"height"`
		TxHash    string      `json:"txhash"`
		Codespace string      `json:"codespace"`
		Code      uint32      `json:"code"`
		RawLog    string      `json:"raw_log"`
		GasUsed   string      `json:"gas_used"`
		Logs      []abciLog   `json:"logs"`
		Events    []abciEvent `json:"events"`
	}

	abciLog struct {
		MsgIndex int         `json:"msg_index"`
		Events   []abciEvent `json:"events"`
	}

	abciEvent struct {
		Type       string          `json:"type"`
		Attributes []abciAttribute `json:"attributes"`
	}

	abciAttribute struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}

	smartQueryResponse struct {
		Data json.RawMessage `json:"data"`
	}

	storeQueryResponse struct {
		QueryResult json.RawMessage `json:"query_result"`
	}

	errorResponse struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
)

func (a accountResponse) signerAccount() (signerAccount, error) {
	var account signerAccount
	var err error

	if a.Account.AccountNumber != "" {
		if account.AccountNumber, err = strconv.ParseUint(a.Account.AccountNumber, 10, 64); err != nil {
			return account, err
		}
	}
	if a.Account.Sequence != "" {
		if account.Sequence, err = strconv.ParseUint(a.Account.Sequence, 10, 64); err != nil {
			return account, err
		}
	}

	return account, nil
}

// toResult flattens message logs and block events into ledger events. Logs take
// precedence because their attributes are never base64-encoded.
func (t txResponse) toResult() *ledger.TxResult {
	height, _ := strconv.ParseInt(t.Height, 10, 64)
	gasUsed, _ := strconv.ParseInt(t.GasUsed, 10, 64)

	result := &ledger.TxResult{
		TxHash:  t.TxHash,
		Height:  height,
		GasUsed: gasUsed,
		Code:    t.Code,
		RawLog:  t.RawLog,
	}

	for _, log := range t.Logs {
		result.Events = appendEvents(result.Events, log.Events)
	}
	result.Events = appendEvents(result.Events, t.Events)

	return result
}

func appendEvents(dst []ledger.Event, events []abciEvent) []ledger.Event {
	for _, e := range events {
		event := ledger.Event{Type: e.Type}
		for _, attr := range e.Attributes {
			event.Attributes = append(event.Attributes, ledger.Attribute{Key: attr.Key, Value: attr.Value})
		}
		dst = append(dst, event)
	}
	return dst
}
