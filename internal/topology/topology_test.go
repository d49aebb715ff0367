package topology

import (
	"testing"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/ledger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Topology {
	return Topology{
		Version:  CurrentVersion,
		Network:  "localterra",
		Deployer: "terra1deployer",
		Contracts: []Entry{
			{Role: RoleGenericToken, CodeID: 7, Address: "terra1generic"},
			{Role: RoleLendingProtocol, CodeID: 8, Address: "terra1protocol"},
			{Role: RoleLendingToken, CodeID: 7, Address: "terra1lending"},
		},
	}
}

func TestLookup(t *testing.T) {
	topo := sample()

	entry, err := topo.Lookup(RoleLendingProtocol)
	require.NoError(t, err)
	assert.Equal(t, "terra1protocol", entry.Address)
	assert.Equal(t, ledger.CodeID(8), entry.CodeID)

	topo.Contracts = topo.Contracts[:1]
	_, err = topo.Address(RoleLendingToken)

	var missing *faults.MissingRoleError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "lending_token", missing.Role)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Topology)
		wantErr string
	}{
		{name: "valid", mutate: func(*Topology) {}},
		{name: "version", mutate: func(t *Topology) { t.Version = 2 }, wantErr: "unsupported version 2"},
		{name: "network", mutate: func(t *Topology) { t.Network = "" }, wantErr: "network is empty"},
		{name: "missing role", mutate: func(t *Topology) { t.Contracts = t.Contracts[:2] }, wantErr: `role "lending_token" is missing`},
		{name: "duplicate role", mutate: func(t *Topology) { t.Contracts[2].Role = RoleGenericToken }, wantErr: "duplicate role"},
		{name: "unknown role", mutate: func(t *Topology) { t.Contracts[1].Role = "oracle" }, wantErr: `unknown role "oracle"`},
		{name: "zero code id", mutate: func(t *Topology) { t.Contracts[1].CodeID = 0 }, wantErr: "has no code id"},
		{name: "empty address", mutate: func(t *Topology) { t.Contracts[0].Address = "" }, wantErr: "has no address"},
		{name: "token code ids differ", mutate: func(t *Topology) { t.Contracts[2].CodeID = 9 }, wantErr: "different code ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := sample()
			tt.mutate(&topo)

			err := topo.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	path := PathFor(".lendnet", "localterra")

	require.NoError(t, store.Persist(sample(), path))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)
}

func TestPersistOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	path := PathFor("state", "bombay")

	first := sample()
	first.Network = "bombay"
	require.NoError(t, store.Persist(first, path))

	second := first
	second.Contracts = []Entry{
		{Role: RoleGenericToken, CodeID: 20, Address: "terra1g2"},
		{Role: RoleLendingProtocol, CodeID: 21, Address: "terra1p2"},
		{Role: RoleLendingToken, CodeID: 20, Address: "terra1l2"},
	}
	require.NoError(t, store.Persist(second, path))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	entries, err := afero.ReadDir(fs, "state")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestPersistRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	invalid := sample()
	invalid.Contracts = nil

	require.Error(t, store.Persist(invalid, "out/topology_localterra.yaml"))

	exists, err := afero.Exists(fs, "out/topology_localterra.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadNotFound(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	_, err := store.Load("nowhere/topology_localterra.yaml")

	var notFound *faults.TopologyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nowhere/topology_localterra.yaml", notFound.Path)
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantReason string
	}{
		{name: "not yaml", content: "version: [1", wantReason: "invalid yaml"},
		{name: "empty", content: "", wantReason: "invalid yaml"},
		{name: "unknown field", content: "version: 1\nnetwork: localterra\nowner: me\n", wantReason: "invalid yaml"},
		{
			name:       "missing role",
			content:    "version: 1\nnetwork: localterra\ncontracts:\n  - role: generic_token\n    code-id: 1\n    address: terra1a\n",
			wantReason: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "topology_localterra.yaml", []byte(tt.content), 0o644))

			_, err := NewStore(fs).Load("topology_localterra.yaml")

			var corrupt *faults.TopologyCorruptError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, tt.wantReason, corrupt.Reason)
		})
	}
}

func TestLoadNetworkMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	require.NoError(t, store.Persist(sample(), PathFor("dir", "bombay")))

	_, err := store.LoadNetwork("dir", "bombay")

	var corrupt *faults.TopologyCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, `expected "bombay"`)

	require.NoError(t, store.Persist(sample(), PathFor("dir", "localterra")))
	loaded, err := store.LoadNetwork("dir", "localterra")
	require.NoError(t, err)
	assert.Equal(t, "localterra", loaded.Network)
}
