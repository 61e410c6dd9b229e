// Package pricing loads and validates the per-operation payment pricing table.
// The table maps operation IDs (REST routes or tool names) to ordered lists of
// payment options; option order is the server's preference and is preserved
// all the way into the 402 challenge.
package pricing

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	x402gate "github.com/payrail/x402gate"
)

// Option is a single acceptable payment for an operation.
type Option struct {
	// ChainID is the numeric EVM chain ID (e.g., 84532 for Base Sepolia).
	// Zero for non-EVM options, which set Network instead.
	ChainID uint64 `yaml:"chain_id"`

	// Network is the x402 network identifier for chains without a numeric
	// chain ID (e.g., "solana"). Ignored when ChainID is set.
	Network string `yaml:"network"`

	// Asset is the token contract address (EVM) or mint address (Solana).
	Asset string `yaml:"token_address"`

	// Amount is the payment amount in atomic units, as a decimal string.
	Amount string `yaml:"token_amount"`
}

// Table is an immutable mapping of operation IDs to payment options.
// Reconfiguration means building a new table, never mutating a live one.
type Table struct {
	ops map[string][]Option
}

// Parse builds a table from YAML of the form:
//
//	get_weather:
//	  - chain_id: 84532
//	    token_address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
//	    token_amount: "1000"
//
// An empty document yields an empty table, which is a valid safe default:
// a gate with an empty table passes every request through.
func Parse(data []byte) (*Table, error) {
	raw := map[string][]Option{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pricing: invalid YAML: %w", err)
	}

	ops := make(map[string][]Option, len(raw))
	for op, options := range raw {
		if op == "" {
			return nil, fmt.Errorf("pricing: empty operation ID")
		}
		copied := make([]Option, len(options))
		copy(copied, options)
		ops[op] = copied
	}

	return &Table{ops: ops}, nil
}

// Load reads and parses a pricing file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pricing: parse %s: %w", path, err)
	}
	return table, nil
}

// Empty returns a valid table with no priced operations.
func Empty() *Table {
	return &Table{ops: map[string][]Option{}}
}

// OptionsFor returns the payment options for an operation in declared order.
// The returned slice is a copy; mutating it does not affect the table.
func (t *Table) OptionsFor(operationID string) []Option {
	options, ok := t.ops[operationID]
	if !ok {
		return nil
	}
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Has reports whether the operation has at least one payment option.
func (t *Table) Has(operationID string) bool {
	return len(t.ops[operationID]) > 0
}

// Operations returns all priced operation IDs, sorted.
func (t *Table) Operations() []string {
	out := make([]string, 0, len(t.ops))
	for op := range t.ops {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of priced operations.
func (t *Table) Len() int {
	return len(t.ops)
}

// Validate checks every option for a parseable amount, a registered chain,
// and an asset address shaped correctly for the chain's VM type. It is meant
// to run at startup so misconfiguration is never discovered per request.
func (t *Table) Validate() error {
	for op, options := range t.ops {
		if len(options) == 0 {
			return fmt.Errorf("pricing: operation %q has no payment options", op)
		}
		for i, opt := range options {
			if err := validateOption(opt); err != nil {
				return fmt.Errorf("pricing: operation %q option %d: %w", op, i, err)
			}
		}
	}
	return nil
}

func validateOption(opt Option) error {
	if _, err := strconv.ParseUint(opt.Amount, 10, 64); err != nil {
		return fmt.Errorf("token_amount %q is not a non-negative integer", opt.Amount)
	}

	var chain x402gate.ChainConfig
	switch {
	case opt.ChainID != 0:
		c, ok := x402gate.ChainByID(opt.ChainID)
		if !ok {
			return fmt.Errorf("%w: chain_id %d", x402gate.ErrUnknownChain, opt.ChainID)
		}
		chain = c
	case opt.Network != "":
		c, ok := x402gate.ChainByNetwork(opt.Network)
		if !ok {
			return fmt.Errorf("%w: network %q", x402gate.ErrUnknownChain, opt.Network)
		}
		chain = c
	default:
		return fmt.Errorf("option has neither chain_id nor network")
	}

	switch chain.Type {
	case x402gate.NetworkTypeEVM:
		if !common.IsHexAddress(opt.Asset) {
			return fmt.Errorf("token_address %q is not a valid EVM address", opt.Asset)
		}
	case x402gate.NetworkTypeSVM:
		if _, err := solana.PublicKeyFromBase58(opt.Asset); err != nil {
			return fmt.Errorf("token_address %q is not a valid Solana address: %v", opt.Asset, err)
		}
	}

	return nil
}
