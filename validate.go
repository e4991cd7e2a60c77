package awl

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/danpasecinic/awl/internal/graph"
)

// dependencyGraph is the static view of the bindings: one node per bound
// service, one edge per constructor parameter or member the planner would
// try to resolve. Factories, constants and external providers have no
// known dependencies.
func (k *Kernel) dependencyGraph() (*graph.Graph, map[string]Service) {
	g := graph.New()
	services := make(map[string]Service)

	for _, b := range k.registry.all() {
		services[b.service.Key()] = b.service
		edges := k.staticEdges(b, services)
		g.AddNode(b.service.Key(), b.service.String(), edges)
	}
	return g, services
}

func (k *Kernel) staticEdges(b *Binding, services map[string]Service) []graph.Edge {
	p := b.provider
	if p.Kind != ProviderType {
		return nil
	}

	var edges []graph.Edge
	add := func(s Service, optional bool) {
		if s.IsOpen() {
			return
		}
		services[s.Key()] = s
		edges = append(edges, graph.Edge{To: s.Key(), Optional: optional})
	}

	var widest *Constructor
	for _, ctor := range k.planner.constructors(p.Type, p) {
		if widest == nil || len(ctor.params) > len(widest.params) {
			widest = ctor
		}
	}
	if widest != nil {
		for _, param := range widest.params {
			add(param.Service, param.Optional || param.HasDefault)
		}
	}

	members, _ := k.config.conventions.Members(p.Type)
	for _, m := range members {
		s := m.Service
		if s.IsZero() {
			s = ServiceOf(m.Type)
		}
		add(s, m.Optional)
	}
	return edges
}

// Validate checks the static dependency graph for services nothing can
// resolve and for cycles. Constructor overrides supplied at resolution time
// are not known here, so a binding that relies on them is reported missing.
func (k *Kernel) Validate() error {
	g, services := k.dependencyGraph()

	var errs error
	for _, m := range g.Missing(
		func(id string) bool {
			s, ok := services[id]
			return ok && k.CanResolve(context.Background(), NewRequest(s, ExactlyOne))
		},
	) {
		errs = multierr.Append(
			errs, fmt.Errorf("%s depends on %s, which has no binding", g.Label(m.From), services[m.To].String()),
		)
	}

	for _, cycle := range g.Cycles() {
		labels := make([]string, len(cycle))
		for i, id := range cycle {
			labels[i] = g.Label(id)
		}
		errs = multierr.Append(errs, fmt.Errorf("dependency cycle: %s", strings.Join(labels, " -> ")))
	}

	if errs != nil {
		return errValidationFailed(errs)
	}
	return nil
}

// Warmup activates every singleton binding, dependencies first, in one pass.
func (k *Kernel) Warmup(ctx context.Context) error {
	if k.closed.Load() {
		return errKernelClosed()
	}

	g, _ := k.dependencyGraph()
	order, err := g.TopologicalSort()
	if err != nil {
		return errValidationFailed(err)
	}

	byService := make(map[string][]*Binding)
	for _, b := range k.registry.all() {
		if b.scopeKind == ScopeSingleton && !b.service.IsOpen() {
			byService[b.service.Key()] = append(byService[b.service.Key()], b)
		}
	}

	ctx, p, owned := k.joinPass(ctx)
	if owned {
		defer p.clear()
	}

	for _, id := range order {
		for _, b := range byService[id] {
			if _, err := k.activate(ctx, p, NewRequest(b.service, ExactlyOne), b); err != nil {
				return err
			}
		}
	}
	return nil
}

func errValidationFailed(cause error) *Error {
	return newError(ErrCodeValidationFailed, "kernel validation failed", cause)
}
