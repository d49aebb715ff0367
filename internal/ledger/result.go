package ledger

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"unicode/utf8"
)

type (
	// TxResult is the outcome of one included transaction.
	TxResult struct {
		TxHash  string
		Height  int64
		GasUsed int64
		Code    uint32
		RawLog  string
		Events  []Event
	}

	Event struct {
		Type       string
		Attributes []Attribute
	}

	Attribute struct {
		Key   string
		Value string
	}
)

const (
	eventStoreCode         = "store_code"
	attrCodeID             = "code_id"
	eventInstantiate       = "instantiate"
	attrContractAddress    = "_contract_address"
	eventLegacyInstantiate = "instantiate_contract"
	attrLegacyAddress      = "contract_address"
)

// Attribute returns the first value of key in an event of eventType.
// Tendermint 0.34 nodes base64-encode event attributes; both forms are matched.
func (r *TxResult) Attribute(eventType, key string) (string, bool) {
	if r == nil {
		return "", false
	}

	for _, event := range r.Events {
		if event.Type != eventType {
			continue
		}
		for _, attr := range event.Attributes {
			if attr.Key == key {
				return attr.Value, true
			}
			if decodedKey, ok := decodeBase64(attr.Key); ok && decodedKey == key {
				if value, ok := decodeBase64(attr.Value); ok {
					return value, true
				}
				return attr.Value, true
			}
		}
	}

	return "", false
}

// CodeIDFrom extracts the code id issued by a MsgStoreCode transaction.
func CodeIDFrom(r *TxResult) (CodeID, error) {
	raw, ok := r.Attribute(eventStoreCode, attrCodeID)
	if !ok {
		return 0, fmt.Errorf("no %s.%s attribute", eventStoreCode, attrCodeID)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid code id %q: %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("code id is zero")
	}

	return CodeID(id), nil
}

// ContractAddressFrom extracts the address created by a MsgInstantiateContract
// transaction.
func ContractAddressFrom(r *TxResult) (string, error) {
	if addr, ok := r.Attribute(eventInstantiate, attrContractAddress); ok && addr != "" {
		return addr, nil
	}
	if addr, ok := r.Attribute(eventLegacyInstantiate, attrLegacyAddress); ok && addr != "" {
		return addr, nil
	}

	return "", fmt.Errorf("no %s.%s attribute", eventInstantiate, attrContractAddress)
}

func decodeBase64(s string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}
