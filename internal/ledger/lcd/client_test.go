package lcd

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type stubSigner struct{}

func (stubSigner) Address() string { return "terra1deployer" }
func (stubSigner) PubKey() []byte  { return append([]byte{0x02}, make([]byte, 32)...) }
func (stubSigner) Sign([]byte) ([]byte, error) {
	return make([]byte, 64), nil
}

type fakeLCD struct {
	t          *testing.T
	pendingFor int32
	lookups    atomic.Int32
	broadcasts atomic.Int32
	checkCode  uint32
	txCode     uint32
	lastTx     []byte
}

func (f *fakeLCD) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/cosmos/auth/v1beta1/accounts/"):
		writeJSON(w, http.StatusOK, map[string]any{
			"account": map[string]any{
				"@type":          "/cosmos.auth.v1beta1.BaseAccount",
				"address":        strings.TrimPrefix(r.URL.Path, "/cosmos/auth/v1beta1/accounts/"),
				"account_number": "12",
				"sequence":       "3",
			},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/cosmos/tx/v1beta1/txs":
		f.broadcasts.Add(1)
		var req struct {
			TxBytes []byte `json:"tx_bytes"`
			Mode    string `json:"mode"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(f.t, "BROADCAST_MODE_SYNC", req.Mode)
		f.lastTx = req.TxBytes
		writeJSON(w, http.StatusOK, map[string]any{
			"tx_response": map[string]any{"txhash": "HASH1", "code": f.checkCode, "raw_log": "out of gas"},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/cosmos/tx/v1beta1/txs/HASH1":
		if f.lookups.Add(1) <= f.pendingFor {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": 5, "message": "tx not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tx_response": map[string]any{
				"height":   "120",
				"txhash":   "HASH1",
				"code":     f.txCode,
				"gas_used": "81234",
				"raw_log":  "ok",
				"logs": []any{map[string]any{
					"msg_index": 0,
					"events": []any{map[string]any{
						"type":       "store_code",
						"attributes": []any{map[string]any{"key": "code_id", "value": "9"}},
					}},
				}},
			},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/cosmwasm/wasm/v1/contract/terra1token/smart/"):
		encoded := strings.TrimPrefix(r.URL.Path, "/cosmwasm/wasm/v1/contract/terra1token/smart/")
		query, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(f.t, err)
		assert.JSONEq(f.t, `{"balance":{"address":"terra1deployer"}}`, string(query))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"balance": "600"}})
	case r.Method == http.MethodGet && r.URL.Path == "/terra/wasm/v1beta1/contracts/terra1token/store":
		query, err := base64.StdEncoding.DecodeString(r.URL.Query().Get("query_msg"))
		require.NoError(f.t, err)
		assert.JSONEq(f.t, `{"balance":{"address":"terra1deployer"}}`, string(query))
		writeJSON(w, http.StatusOK, map[string]any{"query_result": map[string]any{"balance": "700"}})
	default:
		writeJSON(w, http.StatusNotImplemented, map[string]any{"code": 12, "message": "unexpected " + r.URL.Path})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, lcd *fakeLCD) *Client {
	t.Helper()
	return newDialectClient(t, lcd, "")
}

func newDialectClient(t *testing.T, lcd *fakeLCD, dialect ledger.Dialect) *Client {
	t.Helper()

	server := httptest.NewServer(lcd)
	t.Cleanup(server.Close)

	return NewClient(Options{
		BaseURL:      server.URL,
		ChainID:      "localterra",
		Dialect:      dialect,
		GasLimit:     1_000_000,
		GasPrice:     0.15,
		FeeDenom:     "uluna",
		PollAttempts: 5,
		PollInterval: time.Millisecond,
	})
}

func TestBroadcastWaitsForInclusion(t *testing.T) {
	lcd := &fakeLCD{t: t, pendingFor: 2}
	client := newTestClient(t, lcd)

	res, err := client.Broadcast(testContext(t), stubSigner{}, ledger.MsgStoreCode{Sender: "terra1deployer", WASMByteCode: []byte("wasm")})
	require.NoError(t, err)

	assert.Equal(t, "HASH1", res.TxHash)
	assert.Equal(t, int64(120), res.Height)
	assert.Equal(t, int64(81234), res.GasUsed)
	assert.Equal(t, int32(3), lcd.lookups.Load())

	codeID, err := ledger.CodeIDFrom(res)
	require.NoError(t, err)
	assert.Equal(t, ledger.CodeID(9), codeID)

	raw := decodeFields(t, lcd.lastTx)
	require.Len(t, raw[1], 1, "body bytes")
	require.Len(t, raw[2], 1, "auth info bytes")
	require.Len(t, raw[3], 1, "signatures")
	assert.Len(t, raw[3][0], 64)

	body := decodeFields(t, raw[1][0])
	anyMsg := decodeFields(t, body[1][0])
	assert.Equal(t, ledger.TypeURLStoreCode, string(anyMsg[1][0]))
}

func TestBroadcastCheckTxFailure(t *testing.T) {
	lcd := &fakeLCD{t: t, checkCode: 11}
	client := newTestClient(t, lcd)

	_, err := client.Broadcast(testContext(t), stubSigner{}, ledger.MsgExecuteContract{Sender: "terra1deployer", Contract: "terra1token", Msg: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 11")
	assert.Zero(t, lcd.lookups.Load())
}

func TestBroadcastDeliverTxFailure(t *testing.T) {
	lcd := &fakeLCD{t: t, txCode: 5}
	client := newTestClient(t, lcd)

	_, err := client.Broadcast(testContext(t), stubSigner{}, ledger.MsgExecuteContract{Sender: "terra1deployer", Contract: "terra1token", Msg: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 5")
}

func TestBroadcastInclusionTimeout(t *testing.T) {
	lcd := &fakeLCD{t: t, pendingFor: 100}
	client := newTestClient(t, lcd)

	_, err := client.Broadcast(testContext(t), stubSigner{}, ledger.MsgStoreCode{Sender: "terra1deployer", WASMByteCode: []byte("wasm")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTxPending)
	assert.Equal(t, int32(5), lcd.lookups.Load())
}

func TestBroadcastRequiresMessages(t *testing.T) {
	client := newTestClient(t, &fakeLCD{t: t})

	_, err := client.Broadcast(testContext(t), stubSigner{})
	assert.Error(t, err)
}

func TestQuerySmart(t *testing.T) {
	client := newTestClient(t, &fakeLCD{t: t})

	var out struct {
		Balance string `json:"balance"`
	}
	err := client.QuerySmart(testContext(t), "terra1token", map[string]any{"balance": map[string]string{"address": "terra1deployer"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "600", out.Balance)
}

func TestQuerySmartError(t *testing.T) {
	client := newTestClient(t, &fakeLCD{t: t})

	var out map[string]any
	err := client.QuerySmart(testContext(t), "terra1unknown", map[string]any{"config": map[string]any{}}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 501")
}

func TestBroadcastInstantiateLayout(t *testing.T) {
	msg := ledger.MsgInstantiateContract{
		Sender: "terra1deployer",
		CodeID: 9,
		Label:  "lendnet generic token",
		Msg:    []byte(`{"name":"Generic Token"}`),
	}

	tests := []struct {
		dialect ledger.Dialect
		typeURL string
		fields  map[protowire.Number]string
	}{
		{
			dialect: ledger.DialectCosmWasmV1,
			typeURL: "/cosmwasm.wasm.v1.MsgInstantiateContract",
			fields:  map[protowire.Number]string{1: "terra1deployer", 4: "lendnet generic token", 5: `{"name":"Generic Token"}`},
		},
		{
			dialect: ledger.DialectTerraV1Beta1,
			typeURL: "/terra.wasm.v1beta1.MsgInstantiateContract",
			fields:  map[protowire.Number]string{1: "terra1deployer", 4: `{"name":"Generic Token"}`},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			lcd := &fakeLCD{t: t}
			client := newDialectClient(t, lcd, tt.dialect)

			_, err := client.Broadcast(testContext(t), stubSigner{}, msg)
			require.NoError(t, err)

			raw := decodeFields(t, lcd.lastTx)
			body := decodeFields(t, raw[1][0])
			anyMsg := decodeFields(t, body[1][0])
			assert.Equal(t, tt.typeURL, string(anyMsg[1][0]))

			value := decodeFields(t, anyMsg[2][0])
			for num, want := range tt.fields {
				require.Len(t, value[num], 1, "field %d", num)
				assert.Equal(t, want, string(value[num][0]), "field %d", num)
			}
			require.Len(t, value[3], 1, "code id")
			assert.Equal(t, protowire.AppendVarint(nil, 9), value[3][0])
			assert.Len(t, value, len(tt.fields)+1)
		})
	}
}

func TestBroadcastTerraTypeURLs(t *testing.T) {
	lcd := &fakeLCD{t: t}
	client := newDialectClient(t, lcd, ledger.DialectTerraV1Beta1)

	_, err := client.Broadcast(testContext(t), stubSigner{},
		ledger.MsgStoreCode{Sender: "terra1deployer", WASMByteCode: []byte("wasm")},
		ledger.MsgExecuteContract{Sender: "terra1deployer", Contract: "terra1token", Msg: []byte(`{"burn":{"amount":"1"}}`)},
	)
	require.NoError(t, err)

	raw := decodeFields(t, lcd.lastTx)
	body := decodeFields(t, raw[1][0])
	require.Len(t, body[1], 2)

	store := decodeFields(t, body[1][0])
	assert.Equal(t, "/terra.wasm.v1beta1.MsgStoreCode", string(store[1][0]))

	execute := decodeFields(t, body[1][1])
	assert.Equal(t, "/terra.wasm.v1beta1.MsgExecuteContract", string(execute[1][0]))
	value := decodeFields(t, execute[2][0])
	assert.Equal(t, "terra1token", string(value[2][0]))
	assert.Equal(t, `{"burn":{"amount":"1"}}`, string(value[3][0]))
}

func TestQueryContractStore(t *testing.T) {
	client := newDialectClient(t, &fakeLCD{t: t}, ledger.DialectTerraV1Beta1)

	var out struct {
		Balance string `json:"balance"`
	}
	err := client.QuerySmart(testContext(t), "terra1token", map[string]any{"balance": map[string]string{"address": "terra1deployer"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "700", out.Balance)
}

func TestFeeFor(t *testing.T) {
	f := feeFor(5_000_000, 0.15, "uluna")

	assert.Equal(t, uint64(750_000), f.Amount)
	assert.Equal(t, uint64(5_000_000), f.GasLimit)
	assert.Equal(t, "uluna", f.Denom)

	assert.Equal(t, uint64(1), feeFor(3, 0.2, "uluna").Amount)
}

func TestEncodeMsgUnsupported(t *testing.T) {
	_, err := encodeMsg(ledger.DialectCosmWasmV1, unknownMsg{})
	assert.Error(t, err)
}

type unknownMsg struct{}

func (unknownMsg) TypeURL() string { return "/unknown" }

func decodeFields(t *testing.T, b []byte) map[protowire.Number][][]byte {
	t.Helper()

	fields := make(map[protowire.Number][][]byte)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0)
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			require.GreaterOrEqual(t, m, 0)
			fields[num] = append(fields[num], v)
			b = b[m:]
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			require.GreaterOrEqual(t, m, 0)
			fields[num] = append(fields[num], protowire.AppendVarint(nil, v))
			b = b[m:]
		default:
			t.Fatalf("unexpected wire type %d", typ)
		}
	}
	return fields
}
