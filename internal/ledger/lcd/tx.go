package lcd

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"

	"github.com/lendnet/orchestrator/internal/ledger"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	typeURLSecp256k1PubKey = "/cosmos.crypto.secp256k1.PubKey"
	signModeDirect         = 1

	typeURLTerraStoreCode           = "/terra.wasm.v1beta1.MsgStoreCode"
	typeURLTerraInstantiateContract = "/terra.wasm.v1beta1.MsgInstantiateContract"
	typeURLTerraExecuteContract     = "/terra.wasm.v1beta1.MsgExecuteContract"
)

type (
	// fee is the fixed fee attached to every transaction.
	fee struct {
		Denom    string
		Amount   uint64
		GasLimit uint64
	}

	// signerAccount is the on-chain state needed to build a signature.
	signerAccount struct {
		AccountNumber uint64
		Sequence      uint64
	}
)

// feeFor computes ceil(gasLimit * gasPrice) in denom.
func feeFor(gasLimit uint64, gasPrice float64, denom string) fee {
	return fee{
		Denom:    denom,
		Amount:   uint64(math.Ceil(float64(gasLimit) * gasPrice)),
		GasLimit: gasLimit,
	}
}

// buildSignedTx encodes msgs into a SIGN_MODE_DIRECT transaction and returns the
// TxRaw bytes plus the sha256 of the TxRaw, which is the transaction hash.
func buildSignedTx(signer ledger.Signer, dialect ledger.Dialect, chainID string, account signerAccount, f fee, msgs []ledger.Msg) ([]byte, string, error) {
	body, err := encodeTxBody(dialect, msgs)
	if err != nil {
		return nil, "", err
	}

	authInfo := encodeAuthInfo(signer.PubKey(), account.Sequence, f)
	signDoc := encodeSignDoc(body, authInfo, chainID, account.AccountNumber)

	signature, err := signer.Sign(signDoc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw := encodeTxRaw(body, authInfo, signature)
	hash := sha256.Sum256(raw)

	return raw, fmt.Sprintf("%X", hash[:]), nil
}

func encodeTxBody(dialect ledger.Dialect, msgs []ledger.Msg) ([]byte, error) {
	var body []byte
	for _, msg := range msgs {
		value, err := encodeMsg(dialect, msg)
		if err != nil {
			return nil, err
		}
		body = appendMessage(body, 1, encodeAny(typeURL(dialect, msg), value))
	}
	return body, nil
}

// typeURL maps a message to the type URL of dialect.
func typeURL(dialect ledger.Dialect, msg ledger.Msg) string {
	if dialect != ledger.DialectTerraV1Beta1 {
		return msg.TypeURL()
	}

	switch msg.(type) {
	case ledger.MsgStoreCode:
		return typeURLTerraStoreCode
	case ledger.MsgInstantiateContract:
		return typeURLTerraInstantiateContract
	case ledger.MsgExecuteContract:
		return typeURLTerraExecuteContract
	default:
		return msg.TypeURL()
	}
}

// encodeMsg encodes msg in the field layout of dialect. The layouts only differ
// for instantiation: terra.wasm.v1beta1 has no label and carries init_msg in field 4.
func encodeMsg(dialect ledger.Dialect, msg ledger.Msg) ([]byte, error) {
	var b []byte

	switch m := msg.(type) {
	case ledger.MsgStoreCode:
		b = appendString(b, 1, m.Sender)
		b = appendBytes(b, 2, m.WASMByteCode)
	case ledger.MsgInstantiateContract:
		b = appendString(b, 1, m.Sender)
		b = appendString(b, 2, m.Admin)
		b = appendUvarint(b, 3, uint64(m.CodeID))
		if dialect == ledger.DialectTerraV1Beta1 {
			b = appendBytes(b, 4, m.Msg)
			break
		}
		b = appendString(b, 4, m.Label)
		b = appendBytes(b, 5, m.Msg)
	case ledger.MsgExecuteContract:
		b = appendString(b, 1, m.Sender)
		b = appendString(b, 2, m.Contract)
		b = appendBytes(b, 3, m.Msg)
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}

	return b, nil
}

func encodeAuthInfo(pubKey []byte, sequence uint64, f fee) []byte {
	pubKeyAny := encodeAny(typeURLSecp256k1PubKey, appendBytes(nil, 1, pubKey))

	single := appendUvarint(nil, 1, signModeDirect)
	modeInfo := appendMessage(nil, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, pubKeyAny)
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendUvarint(signerInfo, 3, sequence)

	var coin []byte
	coin = appendString(coin, 1, f.Denom)
	coin = appendString(coin, 2, strconv.FormatUint(f.Amount, 10))

	var feeBytes []byte
	feeBytes = appendMessage(feeBytes, 1, coin)
	feeBytes = appendUvarint(feeBytes, 2, f.GasLimit)

	var authInfo []byte
	authInfo = appendMessage(authInfo, 1, signerInfo)
	authInfo = appendMessage(authInfo, 2, feeBytes)

	return authInfo
}

func encodeSignDoc(body, authInfo []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = appendBytes(b, 1, body)
	b = appendBytes(b, 2, authInfo)
	b = appendString(b, 3, chainID)
	b = appendUvarint(b, 4, accountNumber)
	return b
}

func encodeTxRaw(body, authInfo, signature []byte) []byte {
	var b []byte
	b = appendBytes(b, 1, body)
	b = appendBytes(b, 2, authInfo)
	b = appendMessage(b, 3, signature)
	return b
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

// appendMessage always writes the field, even when empty, as required for
// repeated and embedded message fields.
func appendMessage(b []byte, num protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func appendBytes(b []byte, num protowire.Number, value []byte) []byte {
	if len(value) == 0 {
		return b
	}
	return appendMessage(b, num, value)
}

func appendString(b []byte, num protowire.Number, value string) []byte {
	if value == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, value)
}

func appendUvarint(b []byte, num protowire.Number, value uint64) []byte {
	if value == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}
