package configs

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
)

var Values Config

type (
	NetworkName string

	Config struct {
		Networks     map[NetworkName]Network `mapstructure:"networks"`
		Artifacts    Artifacts               `mapstructure:"artifacts"`
		Topology     Topology                `mapstructure:"topology"`
		GenericToken Token                   `mapstructure:"generic-token"`
		LendingToken Token                   `mapstructure:"lending-token"`
		Scenario     Scenario                `mapstructure:"scenario"`
		Log          Log                     `mapstructure:"log"`
		Metrics      Metrics                 `mapstructure:"metrics"`
	}

	// Network describes one chain. WasmDialect selects the wasm module flavour
	// (cosmwasm-v1 or terra-v1beta1) and defaults to cosmwasm-v1.
	Network struct {
		LCDURL        string    `mapstructure:"lcd-url"`
		ChainID       string    `mapstructure:"chain-id"`
		AddressPrefix string    `mapstructure:"address-prefix"`
		GasLimit      uint64    `mapstructure:"gas-limit"`
		GasPrice      float64   `mapstructure:"gas-price"`
		FeeDenom      string    `mapstructure:"fee-denom"`
		WasmDialect   string    `mapstructure:"wasm-dialect"`
		Signer        Signer    `mapstructure:"signer"`
		Broadcast     Broadcast `mapstructure:"broadcast"`
	}

	// Signer selects either a LocalTerra fixture wallet or a mnemonic file.
	Signer struct {
		Fixture      string `mapstructure:"fixture"`
		MnemonicFile string `mapstructure:"mnemonic-file"`
	}

	Broadcast struct {
		PollAttempts uint          `mapstructure:"poll-attempts"`
		PollInterval time.Duration `mapstructure:"poll-interval"`
	}

	Artifacts struct {
		Dir      string `mapstructure:"dir"`
		Token    string `mapstructure:"token"`
		Protocol string `mapstructure:"protocol"`
	}

	Topology struct {
		Dir string `mapstructure:"dir"`
	}

	Token struct {
		Name           string `mapstructure:"name"`
		Symbol         string `mapstructure:"symbol"`
		Decimals       uint8  `mapstructure:"decimals"`
		InitialBalance string `mapstructure:"initial-balance"`
	}

	Scenario struct {
		Deposit           string `mapstructure:"deposit"`
		Withdraw          string `mapstructure:"withdraw"`
		Borrow            string `mapstructure:"borrow"`
		ContinueOnFailure bool   `mapstructure:"continue-on-failure"`
	}

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}

	Metrics struct {
		Textfile string `mapstructure:"textfile"`
	}
)

const (
	NetworkLocalTerra NetworkName = "localterra"
	NetworkBombay     NetworkName = "bombay"
)

// SupportedNetworks lists the network selectors the command surface accepts.
var SupportedNetworks = []NetworkName{NetworkLocalTerra, NetworkBombay}

// IsSupported reports whether name is one of SupportedNetworks.
func IsSupported(name NetworkName) bool {
	return slices.Contains(SupportedNetworks, name)
}

// SupportedNetworkNames returns SupportedNetworks as plain strings.
func SupportedNetworkNames() []string {
	names := make([]string, 0, len(SupportedNetworks))
	for _, name := range SupportedNetworks {
		names = append(names, string(name))
	}
	return names
}

// ResolveNetwork maps a command-line selector to a supported network.
func ResolveNetwork(name string) (NetworkName, error) {
	network := NetworkName(name)
	if !IsSupported(network) {
		return "", &faults.UnknownNetworkError{Name: name, Supported: SupportedNetworkNames()}
	}

	return network, nil
}

// Validate checks the settings shared by every command plus the selected network.
func (c *Config) Validate(network NetworkName) error {
	var errs []error

	net, exists := c.Networks[network]
	if !exists {
		errs = append(errs, fmt.Errorf("networks.%s is required", network))
	} else {
		errs = append(errs, net.validate(network)...)
	}

	if c.Artifacts.Dir == "" {
		errs = append(errs, errors.New("artifacts.dir is required"))
	}
	if c.Artifacts.Token == "" {
		errs = append(errs, errors.New("artifacts.token is required"))
	}
	if c.Artifacts.Protocol == "" {
		errs = append(errs, errors.New("artifacts.protocol is required"))
	}
	if c.Topology.Dir == "" {
		errs = append(errs, errors.New("topology.dir is required"))
	}

	errs = append(errs, c.GenericToken.validate("generic-token")...)
	errs = append(errs, c.LendingToken.validate("lending-token")...)

	if c.Scenario.Deposit == "" || c.Scenario.Withdraw == "" || c.Scenario.Borrow == "" {
		errs = append(errs, errors.New("scenario.deposit, scenario.withdraw and scenario.borrow are required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (n Network) validate(name NetworkName) []error {
	var errs []error

	if n.LCDURL == "" {
		errs = append(errs, fmt.Errorf("networks.%s.lcd-url is required", name))
	}
	if n.ChainID == "" {
		errs = append(errs, fmt.Errorf("networks.%s.chain-id is required", name))
	}
	if n.AddressPrefix == "" {
		errs = append(errs, fmt.Errorf("networks.%s.address-prefix is required", name))
	}
	if n.GasLimit == 0 {
		errs = append(errs, fmt.Errorf("networks.%s.gas-limit is required", name))
	}
	if n.FeeDenom == "" {
		errs = append(errs, fmt.Errorf("networks.%s.fee-denom is required", name))
	}
	if n.GasPrice < 0 {
		errs = append(errs, fmt.Errorf("networks.%s.gas-price must not be negative", name))
	}

	if _, err := ledger.ParseDialect(n.WasmDialect); err != nil {
		errs = append(errs, fmt.Errorf("networks.%s.wasm-dialect: %w", name, err))
	}

	hasFixture := n.Signer.Fixture != ""
	hasMnemonic := n.Signer.MnemonicFile != ""
	if hasFixture == hasMnemonic {
		errs = append(errs, fmt.Errorf("networks.%s.signer requires exactly one of fixture or mnemonic-file", name))
	}

	return errs
}

func (t Token) validate(key string) []error {
	var errs []error

	if t.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", key))
	}
	if t.Symbol == "" {
		errs = append(errs, fmt.Errorf("%s.symbol is required", key))
	}
	if t.InitialBalance == "" {
		errs = append(errs, fmt.Errorf("%s.initial-balance is required", key))
	}

	return errs
}
