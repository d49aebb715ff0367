package configs

import (
	"testing"
	"time"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	local := cfg.Networks[NetworkLocalTerra]
	assert.Equal(t, "localterra", local.ChainID)
	assert.Equal(t, "test1", local.Signer.Fixture)
	assert.Equal(t, time.Second, local.Broadcast.PollInterval)
	assert.Equal(t, uint64(5_000_000), local.GasLimit)

	assert.Equal(t, "cosmwasm-v1", local.WasmDialect)
	assert.Equal(t, "bombay-12", cfg.Networks[NetworkBombay].ChainID)
	assert.Equal(t, "terra-v1beta1", cfg.Networks[NetworkBombay].WasmDialect)
	assert.Equal(t, "lending_token", cfg.Artifacts.Token)
	assert.Equal(t, "100", cfg.LendingToken.InitialBalance)
	assert.Equal(t, "2000", cfg.Scenario.Deposit)

	require.NoError(t, cfg.Validate(NetworkLocalTerra))
	require.NoError(t, cfg.Validate(NetworkBombay))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		network NetworkName
		wantErr string
	}{
		{
			name:    "unknown network",
			mutate:  func(*Config) {},
			network: "mainnet",
			wantErr: "networks.mainnet is required",
		},
		{
			name: "missing lcd url",
			mutate: func(c *Config) {
				n := c.Networks[NetworkLocalTerra]
				n.LCDURL = ""
				c.Networks[NetworkLocalTerra] = n
			},
			network: NetworkLocalTerra,
			wantErr: "networks.localterra.lcd-url is required",
		},
		{
			name: "both signer sources",
			mutate: func(c *Config) {
				n := c.Networks[NetworkLocalTerra]
				n.Signer.MnemonicFile = "mnemonic.txt"
				c.Networks[NetworkLocalTerra] = n
			},
			network: NetworkLocalTerra,
			wantErr: "exactly one of fixture or mnemonic-file",
		},
		{
			name: "unknown wasm dialect",
			mutate: func(c *Config) {
				n := c.Networks[NetworkBombay]
				n.WasmDialect = "terra-v2"
				c.Networks[NetworkBombay] = n
			},
			network: NetworkBombay,
			wantErr: "networks.bombay.wasm-dialect",
		},
		{
			name:    "missing artifacts dir",
			mutate:  func(c *Config) { c.Artifacts.Dir = "" },
			network: NetworkLocalTerra,
			wantErr: "artifacts.dir is required",
		},
		{
			name:    "missing scenario amount",
			mutate:  func(c *Config) { c.Scenario.Borrow = "" },
			network: NetworkLocalTerra,
			wantErr: "scenario.deposit, scenario.withdraw and scenario.borrow are required",
		},
		{
			name:    "missing token symbol",
			mutate:  func(c *Config) { c.LendingToken.Symbol = "" },
			network: NetworkLocalTerra,
			wantErr: "lending-token.symbol is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cloneDefault(t)
			tt.mutate(&cfg)

			err := cfg.Validate(tt.network)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(NetworkLocalTerra))
	assert.True(t, IsSupported(NetworkBombay))
	assert.False(t, IsSupported("columbus-5"))
	assert.Equal(t, []string{"localterra", "bombay"}, SupportedNetworkNames())
}

func cloneDefault(t *testing.T) Config {
	t.Helper()

	cfg, err := DefaultConfig()
	require.NoError(t, err)

	networks := make(map[NetworkName]Network, len(cfg.Networks))
	for name, n := range cfg.Networks {
		networks[name] = n
	}
	cfg.Networks = networks

	return cfg
}

func TestResolveNetwork(t *testing.T) {
	network, err := ResolveNetwork("localterra")
	require.NoError(t, err)
	assert.Equal(t, NetworkLocalTerra, network)

	_, err = ResolveNetwork("mainnet")

	var unknown *faults.UnknownNetworkError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mainnet", unknown.Name)
	assert.Equal(t, []string{"localterra", "bombay"}, unknown.Supported)
}
