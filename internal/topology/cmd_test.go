package topology

import (
	"bytes"
	"testing"

	"github.com/lendnet/orchestrator/configs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestShowPrintsOnlyTheTopology(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewStore(afero.NewOsFs()).Persist(sample(), PathFor(dir, "localterra")))

	previous := configs.Values
	t.Cleanup(func() { configs.Values = previous })
	configs.Values.Topology.Dir = dir

	var out bytes.Buffer
	CMD.SetOut(&out)
	CMD.SetArgs([]string{"show", "localterra"})
	t.Cleanup(func() {
		CMD.SetOut(nil)
		CMD.SetArgs(nil)
	})

	require.NoError(t, CMD.Execute())

	decoder := yaml.NewDecoder(&out)
	decoder.KnownFields(true)

	var printed Topology
	require.NoError(t, decoder.Decode(&printed))
	assert.Equal(t, sample(), printed)
}
