package ledgertest

// Signer is a ledger.Signer for the simulator. Its signatures are not valid
// secp256k1 signatures; only the address matters to the simulated chain.
type Signer struct {
	Addr string
}

func (s Signer) Address() string { return s.Addr }

func (s Signer) PubKey() []byte {
	return append([]byte{0x02}, make([]byte, 32)...)
}

func (s Signer) Sign([]byte) ([]byte, error) {
	return make([]byte, 64), nil
}
