// Package session assembles everything a command needs to act on one network:
// the selected network's settings, the signer, the ledger client and the
// filesystem holding artifacts and topology files.
package session

import (
	"fmt"
	"log/slog"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/keyring"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/lendnet/orchestrator/internal/ledger/lcd"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/lendnet/orchestrator/internal/metrics"
	"github.com/lendnet/orchestrator/internal/topology"
	"github.com/spf13/afero"
)

type (
	Session struct {
		Network  configs.NetworkName
		Settings configs.Network
		Config   configs.Config
		Signer   ledger.Signer
		Client   ledger.Client
		Fs       afero.Fs
		Metrics  *metrics.Recorder
	}

	Option func(*options)

	options struct {
		client ledger.Client
		signer ledger.Signer
		fs     afero.Fs
	}
)

// WithClient replaces the LCD client, e.g. with a simulated ledger.
func WithClient(client ledger.Client) Option {
	return func(o *options) { o.client = client }
}

// WithSigner replaces the signer derived from the network's signer settings.
func WithSigner(signer ledger.Signer) Option {
	return func(o *options) { o.signer = signer }
}

func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// New resolves networkName, validates cfg for it and builds the signer and client.
// An unsupported network is rejected before anything else is touched.
func New(cfg configs.Config, networkName string, opts ...Option) (*Session, error) {
	network, err := configs.ResolveNetwork(networkName)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(network); err != nil {
		return nil, err
	}

	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	settings := cfg.Networks[network]
	log := logger.Named("session").With("network", network)

	signer := o.signer
	if signer == nil {
		if signer, err = newSigner(settings); err != nil {
			return nil, err
		}
	}
	log.With("signer", signer.Address()).Info("signer ready")

	client := o.client
	if client == nil {
		dialect, err := ledger.ParseDialect(settings.WasmDialect)
		if err != nil {
			return nil, err
		}
		client = lcd.NewClient(lcd.Options{
			BaseURL:      settings.LCDURL,
			ChainID:      settings.ChainID,
			Dialect:      dialect,
			GasLimit:     settings.GasLimit,
			GasPrice:     settings.GasPrice,
			FeeDenom:     settings.FeeDenom,
			PollAttempts: settings.Broadcast.PollAttempts,
			PollInterval: settings.Broadcast.PollInterval,
		})
		log.
			With("lcd_url", settings.LCDURL).
			With("chain_id", settings.ChainID).
			With("wasm_dialect", dialect).
			Info("LCD client ready")
	}

	return &Session{
		Network:  network,
		Settings: settings,
		Config:   cfg,
		Signer:   signer,
		Client:   client,
		Fs:       o.fs,
		Metrics:  metrics.New(),
	}, nil
}

// TopologyPath is where this network's topology file lives.
func (s *Session) TopologyPath() string {
	return topology.PathFor(s.Config.Topology.Dir, string(s.Network))
}

// FlushMetrics writes the run's metrics if a textfile is configured.
func (s *Session) FlushMetrics() {
	if err := s.Metrics.WriteTextfile(s.Config.Metrics.Textfile); err != nil {
		slog.With("err", err.Error()).Warn("failed to export metrics")
	}
}

func newSigner(settings configs.Network) (ledger.Signer, error) {
	if settings.Signer.Fixture != "" {
		key, err := keyring.FromFixture(settings.Signer.Fixture, settings.AddressPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture signer: %w", err)
		}
		return key, nil
	}

	mnemonic, err := keyring.LoadMnemonicFile(settings.Signer.MnemonicFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signer mnemonic: %w", err)
	}

	key, err := keyring.FromMnemonic(mnemonic, settings.AddressPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signer from mnemonic: %w", err)
	}

	return key, nil
}
