package awl

import (
	"context"
	"sync"
	"time"
)

type HealthStatus string

const (
	HealthStatusUp      HealthStatus = "up"
	HealthStatusDown    HealthStatus = "down"
	HealthStatusUnknown HealthStatus = "unknown"
)

type HealthReport struct {
	Name    string
	Status  HealthStatus
	Error   error
	Latency time.Duration
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ReadinessChecker interface {
	ReadinessCheck(ctx context.Context) error
}

// Live fails when any cached HealthChecker reports an error.
func (k *Kernel) Live(ctx context.Context) error {
	for _, r := range k.Health(ctx) {
		if r.Status == HealthStatusDown {
			return errHealthCheckFailed(r.Name, r.Error)
		}
	}
	return nil
}

func (k *Kernel) Ready(ctx context.Context) error {
	reports := runChecks(
		ctx, k.cachedInstances(), func(ctx context.Context, instance any) (bool, error) {
			rc, ok := instance.(ReadinessChecker)
			if !ok {
				return false, nil
			}
			return true, rc.ReadinessCheck(ctx)
		},
	)
	for _, r := range reports {
		if r.Status == HealthStatusDown {
			return errHealthCheckFailed(r.Name, r.Error)
		}
	}
	return nil
}

// Health checks every cached instance implementing HealthChecker
// concurrently. Transient instances are never checked.
func (k *Kernel) Health(ctx context.Context) []HealthReport {
	return runChecks(
		ctx, k.cachedInstances(), func(ctx context.Context, instance any) (bool, error) {
			hc, ok := instance.(HealthChecker)
			if !ok {
				return false, nil
			}
			return true, hc.HealthCheck(ctx)
		},
	)
}

type namedInstance struct {
	name     string
	instance any
}

func (k *Kernel) cachedInstances() []namedInstance {
	var out []namedInstance
	for _, cache := range k.scopes.Caches() {
		for _, e := range cache.Entries() {
			name := e.Key
			if data, ok := e.Data.(entryData); ok {
				name = data.service.String()
				if data.binding.name != "" {
					name += "#" + data.binding.name
				}
			}
			out = append(out, namedInstance{name: name, instance: e.Instance})
		}
	}
	return out
}

func runChecks(
	ctx context.Context,
	instances []namedInstance,
	check func(ctx context.Context, instance any) (bool, error),
) []HealthReport {
	var reports []HealthReport
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ni := range instances {
		wg.Add(1)
		go func(ni namedInstance) {
			defer wg.Done()

			start := time.Now()
			ok, err := check(ctx, ni.instance)
			if !ok {
				return
			}

			report := HealthReport{
				Name:    ni.name,
				Latency: time.Since(start),
				Status:  HealthStatusUp,
			}
			if err != nil {
				report.Status = HealthStatusDown
				report.Error = err
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
		}(ni)
	}

	wg.Wait()
	return reports
}

func errHealthCheckFailed(name string, cause error) *Error {
	return newError(ErrCodeHealthCheckFailed, "health check failed", cause).WithService(name)
}
