package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Category   string  `json:"category"`
	Scenario   string  `json:"scenario"`
	Iterations int64   `json:"iterations"`
	NsPerOp    float64 `json:"ns_per_op"`
	BytesPerOp int64   `json:"bytes_per_op"`
	AllocsOp   int64   `json:"allocs_per_op"`
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Awl":          {text.FgGreen, text.Bold},
	"AwlCustom":    {text.FgGreen},
	"AwlExplicit":  {text.FgGreen},
	"AwlGetAll":    {text.FgCyan},
	"AwlMetadata":  {text.FgGreen},
	"AwlSlice":     {text.FgGreen},
	"AwlTransient": {text.FgCyan},
	"Do":           {text.FgYellow},
	"Dig":          {text.FgMagenta},
	"Fx":           {text.FgBlue},
}

var categoryOrder = []string{
	"Bind_Constant", "Bind_Graph",
	"Resolve_Singleton", "Resolve_Graph", "Resolve_Transient", "Resolve_Override",
	"Named_10", "Collection_10", "Collection_First",
	"Scope_Request", "Generic_Closed", "Generic_FirstUse",
	"Lifecycle_10", "Lifecycle_50", "LifecycleWithWork_10", "LifecycleChain_10",
}

var categoryTitles = map[string]string{
	"Bind_Constant":        "Binding Registration (Constant)",
	"Bind_Graph":           "Binding Registration (Six-Service Graph)",
	"Resolve_Singleton":    "Resolution (Singleton)",
	"Resolve_Graph":        "Resolution (Singleton Graph)",
	"Resolve_Transient":    "Resolution (Transient Graph)",
	"Resolve_Override":     "Resolution (Constructor Argument Override)",
	"Named_10":             "Named and Constrained Lookup (10 bindings)",
	"Collection_10":        "Collection Resolution (10 bindings)",
	"Collection_First":     "Lazy Iteration vs Eager Collection (first of 10)",
	"Scope_Request":        "Per-Request Scopes",
	"Generic_Closed":       "Closed Generic Services",
	"Generic_FirstUse":     "Generic Instantiation on First Use (4 closings)",
	"Lifecycle_10":         "Warmup and Close (10 services)",
	"Lifecycle_50":         "Warmup and Close (50 services)",
	"LifecycleWithWork_10": "Warmup and Close with Work (10 services, 1ms hooks)",
	"LifecycleChain_10":    "Warmup and Close (10-link dependency chain)",
}

func main() {
	jsonOut := slices.Contains(os.Args[1:], "--json")

	benchDir := ".."
	if len(os.Args) > 1 && os.Args[1] != "--json" {
		benchDir = os.Args[1]
	}

	fmt.Println(text.Colors{text.FgCyan, text.Bold}.Sprint("Awl Kernel Benchmark Suite"))
	fmt.Println(text.Faint.Sprint("Running benchmarks..."))
	fmt.Println()

	cmd := exec.Command("go", "test", "-bench=.", "-benchmem", "-count=3", "-benchtime=100ms")
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}
	printSummary(grouped)

	if jsonOut {
		if err := exportJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseResults(output []byte) []BenchmarkResult {
	benchPattern := regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)

	seen := make(map[string][]BenchmarkResult)
	var order []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := benchPattern.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.ParseInt(matches[2], 10, 64)
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsOp, _ := strconv.ParseInt(matches[5], 10, 64)

		var category, scenario, framework string
		if parts := strings.Split(name, "_"); len(parts) >= 2 {
			category = parts[0]
			framework = parts[len(parts)-1]
			scenario = strings.Join(parts[1:len(parts)-1], "_")
		}

		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(
			seen[name], BenchmarkResult{
				Name:       name,
				Framework:  framework,
				Category:   category,
				Scenario:   scenario,
				Iterations: iterations,
				NsPerOp:    nsPerOp,
				BytesPerOp: bytesPerOp,
				AllocsOp:   allocsOp,
			},
		)
	}

	results := make([]BenchmarkResult, 0, len(order))
	for _, name := range order {
		results = append(results, average(seen[name]))
	}
	return results
}

func average(runs []BenchmarkResult) BenchmarkResult {
	var totalNs float64
	var totalBytes, totalAllocs int64
	for _, r := range runs {
		totalNs += r.NsPerOp
		totalBytes += r.BytesPerOp
		totalAllocs += r.AllocsOp
	}
	count := float64(len(runs))

	avg := runs[0]
	avg.NsPerOp = totalNs / count
	avg.BytesPerOp = int64(float64(totalBytes) / count)
	avg.AllocsOp = int64(float64(totalAllocs) / count)
	return avg
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		groups[key] = append(groups[key], r)
	}

	keys := slices.Clone(categoryOrder)
	var extra []string
	for key := range groups {
		if !slices.Contains(categoryOrder, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var ordered []CategoryResults
	for _, key := range keys {
		rs, ok := groups[key]
		if !ok {
			continue
		}
		sort.Slice(
			rs, func(i, j int) bool {
				return rs[i].NsPerOp < rs[j].NsPerOp
			},
		)
		ordered = append(ordered, CategoryResults{Category: key, Results: rs})
	}
	return ordered
}

func printCategory(cat CategoryResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(formatCategoryTitle(cat.Category))
	t.AppendHeader(table.Row{"Framework", "Time/op", "Bytes/op", "Allocs/op", "Relative"})
	t.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		},
	)

	fastest := cat.Results[0].NsPerOp
	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx slower", r.NsPerOp/fastest)
		}
		t.AppendRow(
			table.Row{
				colorize(r.Framework),
				formatNs(r.NsPerOp),
				fmt.Sprintf("%d B", r.BytesPerOp),
				r.AllocsOp,
				relative,
			},
		)
	}

	t.Render()
	fmt.Println()
}

func formatCategoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(cat, "_", " ")
}

func colorize(framework string) string {
	if colors, ok := frameworkColors[framework]; ok {
		return colors.Sprint(framework)
	}
	return framework
}

func formatNs(ns float64) string {
	switch {
	case ns >= 1_000_000:
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	case ns >= 1_000:
		return fmt.Sprintf("%.2f µs", ns/1_000)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		if len(cat.Results) > 1 {
			wins[cat.Results[0].Framework]++
		}
	}

	names := make([]string, 0, len(wins))
	for name := range wins {
		names = append(names, name)
	}
	sort.Slice(
		names, func(i, j int) bool {
			if wins[names[i]] != wins[names[j]] {
				return wins[names[i]] > wins[names[j]]
			}
			return names[i] < names[j]
		},
	)

	contested := 0
	for _, cat := range groups {
		if len(cat.Results) > 1 {
			contested++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"#", "Framework", "Wins"})
	for i, name := range names {
		t.AppendRow(table.Row{i + 1, colorize(name), fmt.Sprintf("%d/%d", wins[name], contested)})
	}
	t.AppendFooter(table.Row{"", "Compared", "Awl, samber/do, uber/dig, uber/fx"})
	t.Render()
	fmt.Println()
}

func exportJSON(results []BenchmarkResult) error {
	output := struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{
		Benchmarks: results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile("benchmark_results.json", data, 0o644); err != nil {
		return err
	}
	fmt.Println(text.Faint.Sprint("Results exported to benchmark_results.json"))
	return nil
}
