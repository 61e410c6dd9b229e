package x402gate

// FindMatchingRequirement selects the requirement a payment proof satisfies.
// A requirement matches when its network and scheme both equal the payment's;
// the first match in requirement order wins, so option ordering is a server
// preference the client cannot reorder.
func FindMatchingRequirement(payment PaymentPayload, requirements []PaymentRequirement) (*PaymentRequirement, error) {
	for i := range requirements {
		if requirements[i].Network == payment.Network && requirements[i].Scheme == payment.Scheme {
			return &requirements[i], nil
		}
	}
	return nil, ErrNoMatchingRequirement
}
