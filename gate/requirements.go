package gate

import (
	"log/slog"
	"net/http"

	x402gate "github.com/payrail/x402gate"
	"github.com/payrail/x402gate/pricing"
)

// Builder turns pricing options into the payment requirements advertised in
// a 402 challenge. Output order matches option order; options referencing an
// unknown chain are dropped with a warning rather than defaulted.
type Builder struct {
	payTo             string
	schemes           x402gate.SchemeRegistry
	maxTimeoutSeconds int
	logger            *slog.Logger
}

// NewBuilder creates a builder addressing all requirements to payTo.
// A nil schemes registry omits scheme extras.
func NewBuilder(payTo string, schemes x402gate.SchemeRegistry, maxTimeoutSeconds int, logger *slog.Logger) *Builder {
	if maxTimeoutSeconds <= 0 {
		maxTimeoutSeconds = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		payTo:             payTo,
		schemes:           schemes,
		maxTimeoutSeconds: maxTimeoutSeconds,
		logger:            logger,
	}
}

// Build converts options into requirements for one request. The resource URL
// is derived from the request so every challenge names the exact resource
// being paid for.
func (b *Builder) Build(r *http.Request, operationID string, options []pricing.Option) []x402gate.PaymentRequirement {
	resource := resourceURL(r)
	requirements := make([]x402gate.PaymentRequirement, 0, len(options))

	for _, opt := range options {
		chain, ok := b.chainFor(opt)
		if !ok {
			b.logger.Warn("dropping pricing option for unknown chain",
				"operation", operationID, "chain_id", opt.ChainID, "network", opt.Network)
			continue
		}

		requirements = append(requirements, x402gate.PaymentRequirement{
			Scheme:            "exact",
			Network:           chain.NetworkID,
			MaxAmountRequired: opt.Amount,
			Asset:             opt.Asset,
			PayTo:             b.payTo,
			Resource:          resource,
			Description:       "Payment required for " + operationID,
			MimeType:          "application/json",
			MaxTimeoutSeconds: b.maxTimeoutSeconds,
			Extra:             b.schemes.Extra(chain.NetworkID, "exact"),
		})
	}

	return requirements
}

func (b *Builder) chainFor(opt pricing.Option) (x402gate.ChainConfig, bool) {
	if opt.ChainID != 0 {
		return x402gate.ChainByID(opt.ChainID)
	}
	if opt.Network != "" {
		return x402gate.ChainByNetwork(opt.Network)
	}
	return x402gate.ChainConfig{}, false
}

// resourceURL builds the absolute URL for the protected resource.
func resourceURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.RequestURI
}
