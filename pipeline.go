package awl

import (
	"log/slog"
	"time"

	"go.uber.org/multierr"
)

// Reference carries the instance through the strategies of one activation.
type Reference struct {
	Instance any
	skip     bool
}

// Strategy contributes one phase of activation and its mirror phase of
// deactivation.
type Strategy interface {
	Activate(c *Context, ref *Reference) error
	Deactivate(c *Context, ref *Reference) error
}

// Pipeline runs strategies in order on activation and in reverse order on
// deactivation.
type Pipeline struct {
	strategies   []Strategy
	logger       *slog.Logger
	onActivate   []ActivateHook
	onDeactivate []DeactivateHook
}

func (p *Pipeline) Strategies() []Strategy {
	return append([]Strategy(nil), p.strategies...)
}

// Activate produces the instance for c. When a strategy fails after
// instantiation the instance is returned along with the error; it is already
// recorded as activated in the pass.
func (p *Pipeline) Activate(c *Context) (any, error) {
	start := time.Now()
	ref := &Reference{}

	var err error
	for _, s := range p.strategies {
		if err = s.Activate(c, ref); err != nil {
			break
		}
		if ref.skip {
			p.logger.Debug("instance already activated in pass", c.logAttrs()...)
			break
		}
	}

	p.observeActivate(c, time.Since(start), err)
	if err != nil {
		return ref.Instance, asActivation(c.Service(), err)
	}

	p.logger.Debug("activated", c.logAttrs()...)
	return ref.Instance, nil
}

// Deactivate tears instance down once per pass. Every strategy runs even
// when an earlier one fails; failures are combined.
func (p *Pipeline) Deactivate(c *Context, instance any) error {
	if !c.pass.cache.AddDeactivated(instance) {
		return nil
	}

	start := time.Now()
	ref := &Reference{Instance: instance}

	var errs error
	for i := len(p.strategies) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, p.strategies[i].Deactivate(c, ref))
	}

	p.observeDeactivate(c, time.Since(start), errs)
	if errs != nil {
		p.logger.Warn("deactivation failed", append(c.logAttrs(), "error", errs)...)
		return errDeactivation(c.Service().String(), errs)
	}

	p.logger.Debug("deactivated", c.logAttrs()...)
	return nil
}

func (p *Pipeline) observeActivate(c *Context, d time.Duration, err error) {
	for _, hook := range p.onActivate {
		hook(c.Service().String(), d, err)
	}
}

func (p *Pipeline) observeDeactivate(c *Context, d time.Duration, err error) {
	for _, hook := range p.onDeactivate {
		hook(c.Service().String(), d, err)
	}
}

func asActivation(service Service, err error) error {
	if IsActivation(err) {
		return err
	}
	return errActivation(service, "activation failed", err)
}
