package solana

import "strings"

// Environment is the RPC endpoint of a cluster
type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// ParseEnvironment resolves a cluster moniker (devnet, testnet, mainnet-beta,
// localhost, or their first letter) to its endpoint. Anything else is assumed
// to be an endpoint already.
func ParseEnvironment(cluster string) Environment {
	switch strings.ToLower(strings.TrimSpace(cluster)) {
	case "d", "devnet":
		return EnvironmentDev
	case "t", "testnet":
		return EnvironmentTest
	case "m", "mainnet", "mainnet-beta":
		return EnvironmentProd
	case "l", "localhost", "localnet":
		return EnvironmentLocal
	}
	return Environment(strings.TrimSpace(cluster))
}
