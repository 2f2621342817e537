package biquad

// MaxSections is the longest cascade a Chain holds.
const MaxSections = 4

// Chain is an ordered cascade of biquad sections processed in series. Its
// storage is fixed so that retuning never allocates.
type Chain struct {
	sections [MaxSections]Section
	n        int
}

// NewChain creates a cascade from one or more coefficient sets. Sets beyond
// MaxSections are ignored.
func NewChain(coeffs ...Coefficients) *Chain {
	c := &Chain{}
	c.UpdateCoefficients(coeffs...)

	return c
}

// ProcessBlock runs buf through every section in order.
func (c *Chain) ProcessBlock(buf []float64) {
	c.ProcessStrided(buf, 0, 1)
}

// ProcessStrided runs one interleaved channel through the cascade.
func (c *Chain) ProcessStrided(buf []float64, first, stride int) {
	for i := 0; i < c.n; i++ {
		c.sections[i].ProcessStrided(buf, first, stride)
	}
}

// ProcessSample runs one sample through the cascade.
func (c *Chain) ProcessSample(x float64) float64 {
	for i := 0; i < c.n; i++ {
		x = c.sections[i].ProcessSample(x)
	}

	return x
}

// UpdateCoefficients replaces the coefficients of the cascade. Sections that
// stay in use keep their delay-line state; sections added by a longer
// cascade start from zero.
func (c *Chain) UpdateCoefficients(coeffs ...Coefficients) {
	n := min(len(coeffs), MaxSections)

	for i := c.n; i < n; i++ {
		c.sections[i].Reset()
	}

	for i := 0; i < n; i++ {
		c.sections[i].SetCoefficients(coeffs[i])
	}

	c.n = n
}

// Reset rests every section.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// Order is twice the section count.
func (c *Chain) Order() int { return 2 * c.n }

// NumSections returns how many sections are in use.
func (c *Chain) NumSections() int { return c.n }
