package engine

// Option configures a StdEngine.
type Option func(*options)

type options struct {
	backoff     BackoffConfig
	retryBudget int
}

func defaultOptions() options {
	return options{retryBudget: DefaultRetryBudget}
}

// WithBackoff sets the wait schedule used when the BIO asks for a retry.
func WithBackoff(cfg BackoffConfig) Option {
	return func(o *options) {
		o.backoff = cfg
	}
}

// WithRetryBudget bounds the waits per blocking call. Values below 1 are
// ignored.
func WithRetryBudget(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retryBudget = n
		}
	}
}
