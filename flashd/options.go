package flashd

import (
	"time"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// Config holds the driver configuration.
type Config struct {
	// IAP routes controller commands through the in-ROM trampoline instead
	// of direct register access (optional). Required when the executing code
	// itself runs from the flash being modified.
	IAP sefc.IAPFunc

	// WaitTimeout bounds each busy-wait for controller readiness.
	// Zero (the default) waits forever, matching the hardware contract.
	WaitTimeout time.Duration

	// PollInterval inserts a delay between status polls; useful on slow
	// transports. Zero polls back to back.
	PollInterval time.Duration

	// ProgressCallback is called after each programmed page (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// Option is a functional option for configuring the Driver.
type Option func(*Config)

// WithIAP makes the driver issue commands through the given in-ROM
// trampoline instead of the direct register path.
//
// Example:
//
//	drv, err := flashd.New(bus, geo, flashd.WithIAP(romCall))
func WithIAP(fn sefc.IAPFunc) Option {
	return func(c *Config) {
		c.IAP = fn
	}
}

// WithWaitTimeout bounds how long the driver waits for the controller to
// report ready. The default, zero, blocks indefinitely; hardware guarantees
// completion or a fault, so the bound exists for host tooling talking to a
// possibly dead target.
//
// Example:
//
//	drv, err := flashd.New(bus, geo, flashd.WithWaitTimeout(5*time.Second))
func WithWaitTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.WaitTimeout = timeout
		}
	}
}

// WithPollInterval sets the delay between controller status polls.
//
// Example:
//
//	drv, err := flashd.New(bus, geo, flashd.WithPollInterval(time.Millisecond))
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}

// WithProgressCallback sets a callback invoked after every programmed page.
//
// Example:
//
//	drv, err := flashd.New(bus, geo,
//	    flashd.WithProgressCallback(func(p flashd.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the driver operations.
//
// Example:
//
//	drv, err := flashd.New(bus, geo, flashd.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
