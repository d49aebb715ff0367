package ledger

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIDFrom(t *testing.T) {
	res := &TxResult{Events: []Event{
		{Type: "message", Attributes: []Attribute{{Key: "action", Value: "/cosmwasm.wasm.v1.MsgStoreCode"}}},
		{Type: "store_code", Attributes: []Attribute{{Key: "code_id", Value: "42"}}},
	}}

	id, err := CodeIDFrom(res)
	require.NoError(t, err)
	assert.Equal(t, CodeID(42), id)
	assert.Equal(t, "42", id.String())
}

func TestCodeIDFromBase64Attributes(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString
	res := &TxResult{Events: []Event{
		{Type: "store_code", Attributes: []Attribute{{Key: b64([]byte("code_id")), Value: b64([]byte("7"))}}},
	}}

	id, err := CodeIDFrom(res)
	require.NoError(t, err)
	assert.Equal(t, CodeID(7), id)
}

func TestCodeIDFromMissingOrInvalid(t *testing.T) {
	_, err := CodeIDFrom(&TxResult{})
	assert.Error(t, err)

	_, err = CodeIDFrom(&TxResult{Events: []Event{
		{Type: "store_code", Attributes: []Attribute{{Key: "code_id", Value: "abc"}}},
	}})
	assert.Error(t, err)

	_, err = CodeIDFrom(&TxResult{Events: []Event{
		{Type: "store_code", Attributes: []Attribute{{Key: "code_id", Value: "0"}}},
	}})
	assert.Error(t, err)

	_, err = CodeIDFrom(nil)
	assert.Error(t, err)
}

func TestContractAddressFrom(t *testing.T) {
	current := &TxResult{Events: []Event{
		{Type: "instantiate", Attributes: []Attribute{
			{Key: "_contract_address", Value: "terra1protocol"},
			{Key: "code_id", Value: "2"},
		}},
	}}
	addr, err := ContractAddressFrom(current)
	require.NoError(t, err)
	assert.Equal(t, "terra1protocol", addr)

	legacy := &TxResult{Events: []Event{
		{Type: "instantiate_contract", Attributes: []Attribute{{Key: "contract_address", Value: "terra1legacy"}}},
	}}
	addr, err = ContractAddressFrom(legacy)
	require.NoError(t, err)
	assert.Equal(t, "terra1legacy", addr)

	_, err = ContractAddressFrom(&TxResult{})
	assert.Error(t, err)
}

func TestMessageNames(t *testing.T) {
	names := MessageNames([]Msg{MsgStoreCode{}, MsgInstantiateContract{}, MsgExecuteContract{}})

	assert.Equal(t, []string{"MsgStoreCode", "MsgInstantiateContract", "MsgExecuteContract"}, names)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectCosmWasmV1, d)

	d, err = ParseDialect("terra-v1beta1")
	require.NoError(t, err)
	assert.Equal(t, DialectTerraV1Beta1, d)

	_, err = ParseDialect("wasm-v2")
	assert.ErrorContains(t, err, "unknown wasm dialect")
}
