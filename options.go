package awl

import "log/slog"

type Option func(*kernelConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *kernelConfig) {
		cfg.logger = logger
	}
}

func WithConventions(conventions Conventions) Option {
	return func(cfg *kernelConfig) {
		cfg.conventions = conventions
	}
}

func WithLifecycle(lifecycle Lifecycle) Option {
	return func(cfg *kernelConfig) {
		cfg.lifecycle = lifecycle
	}
}

// WithStrategies appends strategies after the default ones.
func WithStrategies(strategies ...Strategy) Option {
	return func(cfg *kernelConfig) {
		cfg.strategies = append(cfg.strategies, strategies...)
	}
}

// WithoutImplicitSelfBinding stops struct types without a binding from being
// bound to themselves on demand.
func WithoutImplicitSelfBinding() Option {
	return func(cfg *kernelConfig) {
		cfg.selfBinding = false
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *kernelConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithActivateObserver(hook ActivateHook) Option {
	return func(cfg *kernelConfig) {
		cfg.onActivate = append(cfg.onActivate, hook)
	}
}

func WithDeactivateObserver(hook DeactivateHook) Option {
	return func(cfg *kernelConfig) {
		cfg.onDeactivate = append(cfg.onDeactivate, hook)
	}
}
