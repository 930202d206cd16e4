package strategy

// DefaultRegistry returns a Registry pre-populated with the built-in
// strategies, in the order tie-breaks in RunCategory/Dedup should
// respect.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EMACrossover())
	r.Register(Breakout())
	r.Register(OverboughtRejection())
	r.Register(TrendFollow())
	return r
}
