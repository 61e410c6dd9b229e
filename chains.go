// Package x402gate provides the core x402 protocol types for payment-gated
// HTTP services: payment requirements, payment proofs, settlement receipts,
// the chain registry that maps numeric chain IDs to x402 network identifiers,
// and the scheme registry carrying scheme-specific requirement metadata.
package x402gate

// NetworkType represents the blockchain virtual machine type.
type NetworkType int

const (
	// NetworkTypeUnknown represents an unrecognized network.
	NetworkTypeUnknown NetworkType = iota
	// NetworkTypeEVM represents Ethereum Virtual Machine chains.
	NetworkTypeEVM
	// NetworkTypeSVM represents Solana Virtual Machine chains.
	NetworkTypeSVM
)

// ChainConfig contains chain-specific configuration for building payment
// requirements. All USDC addresses and EIP-3009 parameters were verified
// on 2025-10-28.
type ChainConfig struct {
	// ChainID is the numeric EVM chain ID (0 for non-EVM chains).
	ChainID uint64

	// NetworkID is the x402 protocol network identifier (e.g., "base", "solana").
	NetworkID string

	// CAIP2 is the CAIP-2 chain identifier (e.g., "eip155:8453").
	CAIP2 string

	// Type is the virtual machine type of the chain.
	Type NetworkType

	// USDCAddress is the official Circle USDC contract address or mint address.
	USDCAddress string

	// Decimals is the number of decimal places for USDC (always 6).
	Decimals uint8

	// EIP3009Name is the EIP-3009 domain parameter "name" (empty for non-EVM chains).
	EIP3009Name string

	// EIP3009Version is the EIP-3009 domain parameter "version" (empty for non-EVM chains).
	EIP3009Version string
}

// Mainnet chain configurations
var (
	// BaseMainnet is the configuration for Base mainnet.
	BaseMainnet = ChainConfig{
		ChainID:        8453,
		NetworkID:      "base",
		CAIP2:          "eip155:8453",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// PolygonMainnet is the configuration for Polygon PoS mainnet.
	PolygonMainnet = ChainConfig{
		ChainID:        137,
		NetworkID:      "polygon",
		CAIP2:          "eip155:137",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// AvalancheMainnet is the configuration for Avalanche C-Chain mainnet.
	AvalancheMainnet = ChainConfig{
		ChainID:        43114,
		NetworkID:      "avalanche",
		CAIP2:          "eip155:43114",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// SolanaMainnet is the configuration for Solana mainnet.
	SolanaMainnet = ChainConfig{
		NetworkID:   "solana",
		CAIP2:       "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp",
		Type:        NetworkTypeSVM,
		USDCAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:    6,
	}
)

// Testnet chain configurations
var (
	// BaseSepolia is the configuration for Base Sepolia testnet.
	// EIP-3009 parameters verified 2025-10-30 via on-chain contract read.
	BaseSepolia = ChainConfig{
		ChainID:        84532,
		NetworkID:      "base-sepolia",
		CAIP2:          "eip155:84532",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	// PolygonAmoy is the configuration for Polygon Amoy testnet.
	PolygonAmoy = ChainConfig{
		ChainID:        80002,
		NetworkID:      "polygon-amoy",
		CAIP2:          "eip155:80002",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	// AvalancheFuji is the configuration for Avalanche Fuji testnet.
	AvalancheFuji = ChainConfig{
		ChainID:        43113,
		NetworkID:      "avalanche-fuji",
		CAIP2:          "eip155:43113",
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x5425890298aed601595a70AB815c96711a31Bc65",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// SolanaDevnet is the configuration for Solana devnet.
	SolanaDevnet = ChainConfig{
		NetworkID:   "solana-devnet",
		CAIP2:       "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1",
		Type:        NetworkTypeSVM,
		USDCAddress: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		Decimals:    6,
	}
)

var registeredChains = []ChainConfig{
	BaseMainnet,
	BaseSepolia,
	PolygonMainnet,
	PolygonAmoy,
	AvalancheMainnet,
	AvalancheFuji,
	SolanaMainnet,
	SolanaDevnet,
}

var (
	chainsByID      = map[uint64]ChainConfig{}
	chainsByNetwork = map[string]ChainConfig{}
)

func init() {
	for _, c := range registeredChains {
		if c.ChainID != 0 {
			chainsByID[c.ChainID] = c
		}
		chainsByNetwork[c.NetworkID] = c
	}
}

// ChainByID returns the chain configuration for a numeric EVM chain ID.
// Unknown chain IDs report ok=false; callers must never substitute a default.
func ChainByID(chainID uint64) (ChainConfig, bool) {
	c, ok := chainsByID[chainID]
	return c, ok
}

// ChainByNetwork returns the chain configuration for an x402 network identifier.
func ChainByNetwork(networkID string) (ChainConfig, bool) {
	c, ok := chainsByNetwork[networkID]
	return c, ok
}

// NetworkForChainID maps a numeric EVM chain ID to its x402 network identifier.
func NetworkForChainID(chainID uint64) (string, bool) {
	c, ok := chainsByID[chainID]
	if !ok {
		return "", false
	}
	return c.NetworkID, true
}

// SchemeKey identifies scheme-specific metadata by network and scheme.
type SchemeKey struct {
	Network string
	Scheme  string
}

// SchemeRegistry maps (network, scheme) pairs to the extra metadata a payment
// requirement for that pair should carry. For the "exact" scheme on EVM
// networks the extras are the EIP-3009 domain parameters.
type SchemeRegistry map[SchemeKey]map[string]interface{}

// Extra returns the registered metadata for a (network, scheme) pair, or nil.
// The returned map is a copy; callers may attach it to a requirement directly.
func (r SchemeRegistry) Extra(network, scheme string) map[string]interface{} {
	extra, ok := r[SchemeKey{Network: network, Scheme: scheme}]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// DefaultSchemeRegistry returns a registry populated with EIP-3009 domain
// parameters for the "exact" scheme on every registered EVM network.
func DefaultSchemeRegistry() SchemeRegistry {
	reg := make(SchemeRegistry)
	for _, c := range registeredChains {
		if c.Type != NetworkTypeEVM || c.EIP3009Name == "" {
			continue
		}
		reg[SchemeKey{Network: c.NetworkID, Scheme: "exact"}] = map[string]interface{}{
			"name":    c.EIP3009Name,
			"version": c.EIP3009Version,
		}
	}
	return reg
}
