package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/LizBugFree/network-monitor-demo/pkg/client"
)

// stdout is swapped by tests
var stdout io.Writer = os.Stdout

// Table renders data as a formatted table.
type Table struct {
	headers []string
	rows    [][]string
	writer  io.Writer
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		writer:  stdout,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render writes the table.
func (t *Table) Render() {
	w := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(t.headers, "\t"))

	sep := make([]string, len(t.headers))
	for i, h := range t.headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))

	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// printOutput prints data in the requested format.
func printOutput(data interface{}) error {
	switch getOutputFormat() {
	case "yaml":
		return printYAML(data)
	default:
		return printJSON(data)
	}
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(data interface{}) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatFailed renders the failed sources of a cycle
func formatFailed(sources []string) string {
	if len(sources) == 0 {
		return "[+] none"
	}
	return "[-] " + strings.Join(sources, ", ")
}

func renderNetworkCollection(res *client.NetworkCollection) error {
	if getOutputFormat() != "table" {
		return printOutput(res)
	}

	fmt.Fprintf(stdout, "Network cycle %s\n", res.Timestamp)
	fmt.Fprintf(stdout, "Failed sources: %s\n\n", formatFailed(res.FailedSources))

	rc := res.ResourcesCollected
	t := NewTable("KIND", "COUNT")
	t.AddRow("networks", strconv.Itoa(rc.Networks))
	t.AddRow("subnetworks", strconv.Itoa(rc.Subnetworks))
	t.AddRow("firewall_rules", strconv.Itoa(rc.FirewallRules))
	t.AddRow("routers", strconv.Itoa(rc.Routers))
	t.AddRow("nat_gateways", strconv.Itoa(rc.NatGateways))
	t.AddRow("instances", strconv.Itoa(rc.Instances))
	t.Render()

	if res.Insights == nil {
		return nil
	}
	if len(res.Insights.Security) > 0 {
		fmt.Fprintln(stdout)
		t = NewTable("RULE", "SECURITY INSIGHT")
		for _, s := range res.Insights.Security {
			t.AddRow(s.Rule, truncate(s.Message, 80))
		}
		t.Render()
	}
	if len(res.Insights.Cost) > 0 {
		fmt.Fprintln(stdout)
		t = NewTable("KIND", "COUNT", "COST INSIGHT")
		for _, c := range res.Insights.Cost {
			t.AddRow(c.Kind, strconv.Itoa(c.Count), truncate(c.Message, 80))
		}
		t.Render()
	}
	return nil
}

func renderMetricsCollection(res *client.MetricsCollection) error {
	if getOutputFormat() != "table" {
		return printOutput(res)
	}

	fmt.Fprintf(stdout, "Metrics cycle %s over %d minutes\n", res.Timestamp, res.DurationMinutes)
	fmt.Fprintf(stdout, "Failed sources: %s\n\n", formatFailed(res.FailedSources))

	families := make([]string, 0, len(res.MetricsBreakdown))
	for family := range res.MetricsBreakdown {
		families = append(families, family)
	}
	sort.Strings(families)

	t := NewTable("FAMILY", "POINTS")
	for _, family := range families {
		t.AddRow(family, strconv.Itoa(res.MetricsBreakdown[family]))
	}
	t.AddRow("total", strconv.Itoa(res.TotalMetricsCollected))
	t.Render()
	return nil
}

func renderDocument(doc *client.Document) error {
	if getOutputFormat() != "table" {
		return printOutput(doc)
	}

	keys := make([]string, 0, len(doc.Data))
	for k := range doc.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(stdout, "Document %s\n\n", doc.ID)
	t := NewTable("FIELD", "VALUE")
	for _, k := range keys {
		v, err := json.Marshal(doc.Data[k])
		if err != nil {
			return err
		}
		t.AddRow(k, truncate(string(v), 80))
	}
	t.Render()
	return nil
}
