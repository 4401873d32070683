package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	for cluster, expected := range map[string]Environment{
		"devnet":                  EnvironmentDev,
		"d":                       EnvironmentDev,
		"testnet":                 EnvironmentTest,
		"Mainnet-Beta":            EnvironmentProd,
		"m":                       EnvironmentProd,
		"localhost":               EnvironmentLocal,
		" l ":                     EnvironmentLocal,
		"https://rpc.example.com": "https://rpc.example.com",
		"http://10.0.0.1:8899":    "http://10.0.0.1:8899",
	} {
		assert.Equal(t, expected, ParseEnvironment(cluster), cluster)
	}
}
