// Package keyring provisions signer identities from LocalTerra fixture wallets or
// from a BIP-39 recovery phrase.
package keyring

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos account addresses are defined with ripemd160
)

const (
	// CoinTypeTerra is the SLIP-44 coin type used by Terra wallets.
	CoinTypeTerra = 330
	// DefaultPrefix is the bech32 human readable part of Terra account addresses.
	DefaultPrefix = "terra"
)

// fixtures are the well-known LocalTerra test wallets. They hold funds only on a
// local network.
var fixtures = map[string]string{
	"test1": "notice oak worry limit wrap speak medal online prefer cluster roof addict wrist behave treat actual wasp year salad speed social layer crew genius",
	"test2": "quality vacuum heart guard buzz spike sight swarm shove special gym robust assume sudden deposit grid alcohol choice devote leader tilt noodle tide penalty",
	"test3": "symbol force gallery make bulk round subway violin worry mixture penalty kingdom boring survey tool fringe patrol sausage hard admit remember broken alien absorb",
}

// Key is a secp256k1 signer. It is never mutated after creation.
type Key struct {
	privateKey *ecdsa.PrivateKey
	pubKey     []byte
	address    string
}

var _ ledger.Signer = (*Key)(nil)

// FixtureNames lists the available fixture wallets.
func FixtureNames() []string {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FixtureMnemonic returns the publicly known mnemonic of a fixture wallet.
func FixtureMnemonic(name string) (string, bool) {
	mnemonic, ok := fixtures[name]
	return mnemonic, ok
}

// FromFixture returns the LocalTerra test wallet called name.
func FromFixture(name, prefix string) (*Key, error) {
	mnemonic, ok := fixtures[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixture wallet %q (expected one of %s)", name, strings.Join(FixtureNames(), ", "))
	}

	return FromMnemonic(mnemonic, prefix)
}

// FromMnemonic derives the first Terra account m/44'/330'/0'/0/0 from mnemonic.
func FromMnemonic(mnemonic, prefix string) (*Key, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	privateKeyBytes, err := derive(seed, hdkeychain.HardenedKeyStart+44, hdkeychain.HardenedKeyStart+CoinTypeTerra, hdkeychain.HardenedKeyStart, 0, 0)
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load derived private key: %w", err)
	}

	return newKey(privateKey, prefix)
}

// LoadMnemonicFile reads a recovery phrase from path.
func LoadMnemonicFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read mnemonic file: %w", err)
	}

	mnemonic := strings.TrimSpace(string(data))
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic file %s is empty", path)
	}

	return mnemonic, nil
}

func (k *Key) Address() string {
	return k.address
}

func (k *Key) PubKey() []byte {
	return slices.Clone(k.pubKey)
}

// Sign signs sha256(signBytes) and returns the 64-byte r||s form cosmos expects.
func (k *Key) Sign(signBytes []byte) ([]byte, error) {
	hash := sha256.Sum256(signBytes)

	signature, err := crypto.Sign(hash[:], k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return signature[:64], nil
}

func newKey(privateKey *ecdsa.PrivateKey, prefix string) (*Key, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	pubKey := crypto.CompressPubkey(&privateKey.PublicKey)
	address, err := AddressFromPubKey(pubKey, prefix)
	if err != nil {
		return nil, err
	}

	return &Key{
		privateKey: privateKey,
		pubKey:     pubKey,
		address:    address,
	}, nil
}

// AddressFromPubKey encodes bech32(prefix, ripemd160(sha256(pubKey))).
func AddressFromPubKey(pubKey []byte, prefix string) (string, error) {
	shaSum := sha256.Sum256(pubKey)

	hasher := ripemd160.New()
	hasher.Write(shaSum[:])

	converted, err := bech32.ConvertBits(hasher.Sum(nil), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}

	address, err := bech32.Encode(prefix, converted)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	return address, nil
}

func derive(seed []byte, path ...uint32) ([]byte, error) {
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	for _, index := range path {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", index, err)
		}
	}

	privateKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}

	return privateKey.Serialize(), nil
}
