package shachain

// Producer is the revealing side of a shachain: the party that generates
// commitment secrets from a single root seed and, when it revokes a
// commitment, reveals the one secret for that commitment height. Grounded
// on elkrem's ElkremSender, which likewise needs only a single root value
// (elkrem/serdes.go: "ToBytes returns the root of the elkrem sender tree").
type Producer struct {
	seed Secret
}

// NewProducer returns a Producer rooted at the given seed. The seed itself
// is derived by the caller (typically from the channel's key-derivation
// scheme) and is opaque to this package.
func NewProducer(seed Secret) *Producer {
	return &Producer{seed: seed}
}

// AtHeight derives the per-commitment secret for the given commitment
// height (a channel-local, monotonically increasing counter starting at
// zero). Revealing the returned secret never allows derivation of the
// secret at any later height.
func (p *Producer) AtHeight(height uint64) (Secret, error) {
	if height > rootIndex {
		return Secret{}, errIndexTooHigh
	}
	return derive(p.seed, commitmentIndex(height)), nil
}

// Seed returns the root seed. Exposed only for persistence: a Producer's
// entire state is its seed.
func (p *Producer) Seed() Secret {
	return p.seed
}
