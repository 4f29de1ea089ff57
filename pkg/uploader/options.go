package uploader

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/beanbocchi/tubeup/pkg/validator"
)

const (
	DefaultPartTimeout        = 5 * time.Minute
	DefaultNegotiationTimeout = 30 * time.Second
)

// Options tunes a Coordinator. Use the With* functions to set them.
type Options struct {
	// ConcurrencyCap bounds the detected parallelism.
	ConcurrencyCap int `validate:"gte=1,lte=16"`
	// Concurrency overrides detection when non-zero.
	Concurrency        int           `validate:"gte=0,lte=16"`
	Sequential         bool          `validate:"-"`
	PartTimeout        time.Duration `validate:"gt=0"`
	NegotiationTimeout time.Duration `validate:"gt=0"`
	PartRetries        int           `validate:"gte=0,lte=10"`
	RetryInterval      time.Duration `validate:"gte=0"`

	Transferer Transferer   `validate:"-"`
	Clock      Clock        `validate:"-"`
	Logger     *slog.Logger `validate:"-"`
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ConcurrencyCap:     DefaultConcurrencyCap,
		PartTimeout:        DefaultPartTimeout,
		NegotiationTimeout: DefaultNegotiationTimeout,
	}
}

func WithConcurrencyCap(n int) Option {
	return func(o *Options) { o.ConcurrencyCap = n }
}

// WithConcurrency pins the number of parallel part uploads.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// WithSequential uploads one part at a time.
func WithSequential() Option {
	return func(o *Options) { o.Sequential = true }
}

func WithPartTimeout(d time.Duration) Option {
	return func(o *Options) { o.PartTimeout = d }
}

func WithNegotiationTimeout(d time.Duration) Option {
	return func(o *Options) { o.NegotiationTimeout = d }
}

// WithPartRetries retries a failed part up to n times with exponential backoff
// before the upload is aborted. The default is no retry.
func WithPartRetries(n int, interval time.Duration) Option {
	return func(o *Options) {
		o.PartRetries = n
		o.RetryInterval = interval
	}
}

func WithTransferer(t Transferer) Option {
	return func(o *Options) { o.Transferer = t }
}

// WithHTTPClient sends part bodies through client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) { o.Transferer = NewHTTPTransferer(client) }
}

func WithClock(c Clock) Option {
	return func(o *Options) { o.Clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func (o *Options) validate() error {
	if err := validator.Validate(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// concurrency resolves the number of pool slots.
func (o *Options) concurrency() int {
	switch {
	case o.Sequential:
		return 1
	case o.Concurrency > 0:
		return o.Concurrency
	default:
		return Concurrency(o.ConcurrencyCap)
	}
}
