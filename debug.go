package awl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type GraphInfo struct {
	Services []ServiceInfo
}

type ServiceInfo struct {
	Key          string
	Name         string
	Dependencies []string
	Dependents   []string
	Instantiated bool
	Bindings     int
}

// Graph describes the static dependency graph of the bound services, sorted
// by display name.
func (k *Kernel) Graph() GraphInfo {
	g, services := k.dependencyGraph()
	cached := k.cachedServices()

	bindings := make(map[string]int)
	for _, b := range k.registry.all() {
		bindings[b.service.Key()]++
	}

	label := func(ids []string) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			if s, ok := services[id]; ok {
				out[i] = s.String()
			} else {
				out[i] = id
			}
		}
		return out
	}

	infos := make([]ServiceInfo, 0, g.Size())
	for _, id := range g.Nodes() {
		infos = append(
			infos, ServiceInfo{
				Key:          id,
				Name:         g.Label(id),
				Dependencies: label(g.Dependencies(id)),
				Dependents:   label(g.Dependents(id)),
				Instantiated: cached[id],
				Bindings:     bindings[id],
			},
		)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return GraphInfo{Services: infos}
}

// cachedServices marks services that have at least one cached instance in
// any scope.
func (k *Kernel) cachedServices() map[string]bool {
	cached := make(map[string]bool)
	for _, cache := range k.scopes.Caches() {
		for _, e := range cache.Entries() {
			if data, ok := e.Data.(entryData); ok {
				cached[data.binding.service.Key()] = true
			}
		}
	}
	return cached
}

func (k *Kernel) PrintGraph() {
	k.FprintGraph(os.Stdout)
}

func (k *Kernel) FprintGraph(w io.Writer) {
	info := k.Graph()

	if len(info.Services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty kernel)")
		return
	}

	for _, svc := range info.Services {
		status := "○"
		if svc.Instantiated {
			status = "●"
		}

		if len(svc.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, svc.Name)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, svc.Name, strings.Join(svc.Dependencies, ", "))
		}
	}
}

func (k *Kernel) SprintGraph() string {
	var sb strings.Builder
	k.FprintGraph(&sb)
	return sb.String()
}

func (k *Kernel) FprintGraphDOT(w io.Writer) {
	info := k.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Services {
		style := ""
		if svc.Instantiated {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.Name, escapeLabel(svc.Name), style)
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Services {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.Name, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (k *Kernel) SprintGraphDOT() string {
	var sb strings.Builder
	k.FprintGraphDOT(&sb)
	return sb.String()
}

// FprintBindings renders every binding as a table row in registration order.
func (k *Kernel) FprintBindings(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Service", "Name", "Provider", "Scope", "Conditional", "Metadata"})

	for _, b := range k.registry.all() {
		t.AppendRow(
			table.Row{
				b.id,
				b.service.String(),
				b.name,
				describeProvider(b.provider),
				b.scopeKind.String(),
				b.IsConditional(),
				formatMetadata(b.metadata),
			},
		)
	}
	t.Render()
}

func (k *Kernel) SprintBindings() string {
	var sb strings.Builder
	k.FprintBindings(&sb)
	return sb.String()
}

func describeProvider(p Provider) string {
	if p.Type != nil && p.Kind != ProviderFactory {
		return p.Kind.String() + " " + p.Type.String()
	}
	return p.Kind.String()
}

func formatMetadata(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, m[key])
	}
	return strings.Join(parts, " ")
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		s = s[idx+1:]
	}
	return s
}
