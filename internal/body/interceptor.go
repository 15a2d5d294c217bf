package body

import (
	"fmt"
	"log"
	"time"
)

// Interceptor transforms a body in place. Interceptors run one after the
// other on a body; none of them may run concurrently on the same body.
type Interceptor interface {
	Name() string
	Intercept(b *Body) error
}

// Chain applies interceptors sequentially
type Chain struct {
	interceptors []Interceptor
	logger       *log.Logger
}

// NewChain creates a chain over the given interceptors
func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: interceptors}
}

// SetLogger enables per-interceptor timing messages
func (c *Chain) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Names returns the interceptor names in application order
func (c *Chain) Names() []string {
	names := make([]string, len(c.interceptors))
	for i, ic := range c.interceptors {
		names[i] = ic.Name()
	}
	return names
}

// Apply runs every interceptor on b, stopping at the first failure
func (c *Chain) Apply(b *Body) error {
	for _, ic := range c.interceptors {
		start := time.Now()
		if err := ic.Intercept(b); err != nil {
			return fmt.Errorf("interceptor %s on %s: %w", ic.Name(), b.Signature(), err)
		}
		c.logf("%s on %s took %v", ic.Name(), b.Signature(), time.Since(start))
	}
	return nil
}

func (c *Chain) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("Chain: "+format, args...)
	}
}
