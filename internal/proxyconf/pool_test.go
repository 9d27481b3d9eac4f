package proxyconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nutcracker-tools/beholder/internal/models"
)

func TestParseServerEntry(t *testing.T) {
	t.Run("WithName", func(t *testing.T) {
		e, err := ParseServerEntry("10.0.0.1:6379:1 server1")
		require.NoError(t, err)
		assert.Equal(t, models.Addr{Host: "10.0.0.1", Port: 6379}, e.Addr)
		assert.Equal(t, 1, e.Weight)
		assert.Equal(t, "server1", e.Name)
		assert.Equal(t, "10.0.0.1:6379:1 server1", e.String())
	})
	t.Run("WithoutName", func(t *testing.T) {
		e, err := ParseServerEntry("10.0.0.1:6379:2")
		require.NoError(t, err)
		assert.Equal(t, 2, e.Weight)
		assert.Empty(t, e.Name)
		assert.Equal(t, "10.0.0.1:6379:2", e.String())
	})
	t.Run("MissingWeight", func(t *testing.T) {
		_, err := ParseServerEntry("10.0.0.1:6379")
		assert.Error(t, err)
	})
	t.Run("BadPort", func(t *testing.T) {
		_, err := ParseServerEntry("10.0.0.1:nope:1")
		assert.Error(t, err)
	})
	t.Run("Empty", func(t *testing.T) {
		_, err := ParseServerEntry("")
		assert.Error(t, err)
	})
	t.Run("TooManyTokens", func(t *testing.T) {
		_, err := ParseServerEntry("10.0.0.1:6379:1 server1 junk")
		assert.Error(t, err)
	})
}

const samplePoolsYAML = `mypool:
  listen: 0.0.0.0:22121
  hash: fnv1a_64
  distribution: ketama
  auto_eject_hosts: false
  redis: true
  servers:
    - 10.0.0.1:6379:1 server1
    - 10.0.0.3:6379:1 server2
otherpool:
  listen: 0.0.0.0:22122
  redis: true
  servers:
    - 10.1.0.1:6379:1
`

func TestPoolsRoundTrip(t *testing.T) {
	pools := Pools{}
	require.NoError(t, yaml.Unmarshal([]byte(samplePoolsYAML), &pools))

	require.Contains(t, pools, "mypool")
	require.Contains(t, pools, "otherpool")
	require.Len(t, pools["mypool"].Servers, 2)
	assert.Equal(t, "10.0.0.1:6379:1 server1", pools["mypool"].Servers[0].String())
	assert.Equal(t, true, pools["mypool"].Rest["redis"])
	assert.Equal(t, "0.0.0.0:22121", pools["mypool"].Rest["listen"])

	data, err := yaml.Marshal(pools)
	require.NoError(t, err)

	reparsed := Pools{}
	require.NoError(t, yaml.Unmarshal(data, &reparsed))
	assert.Equal(t, pools, reparsed)
	// server order must survive the round trip
	assert.Equal(t, "server1", reparsed["mypool"].Servers[0].Name)
	assert.Equal(t, "server2", reparsed["mypool"].Servers[1].Name)
}
