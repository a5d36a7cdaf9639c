package rpctest

import (
	"fmt"
	"io"
	"time"
)

// FormatLatency renders micros with a unit picked from its magnitude: µs, ms or s.
func FormatLatency(micros int64) string {
	d := time.Duration(micros) * time.Microsecond
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.2f µs", float64(micros))
	case d < time.Second:
		return fmt.Sprintf("%.2f ms", float64(micros)/1e3)
	default:
		return fmt.Sprintf("%.2f s", d.Seconds())
	}
}

// WriteSummary prints the overall and per method numbers of a result.
// Sections with no data are skipped.
func WriteSummary(w io.Writer, result *TestResult) {
	if result == nil {
		return
	}
	if o := result.Overall; o != nil {
		fmt.Fprintf(w, "\nOverall Results:\n")
		fmt.Fprintf(w, "   Total Requests: %d\n", o.TotalRequests)
		fmt.Fprintf(w, "   Total Success: %d\n", o.TotalSuccess)
		fmt.Fprintf(w, "   Overall RPS: %.2f\n", o.OverallRPS)
		fmt.Fprintf(w, "   Success Rate: %.2f%%\n", o.OverallSuccessRate)
	}
	if len(result.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "\nMethod-Specific Results:\n")
	for _, r := range result.Results {
		name := r.MethodName
		if name == "" {
			name = StatusUnknown
		}
		fmt.Fprintf(w, "   %s:\n", name)
		fmt.Fprintf(w, "      Requests: %d\n", r.TotalRequests)
		fmt.Fprintf(w, "      Success Rate: %.2f%%\n", r.SuccessRate)
		fmt.Fprintf(w, "      RPS: %.2f\n", r.RequestsPerSec)
		if r.SuccessCount > 0 {
			fmt.Fprintf(w, "      Latency: min %s, avg %s, max %s\n",
				FormatLatency(r.MinLatencyMicros), FormatLatency(r.AvgLatencyMicros), FormatLatency(r.MaxLatencyMicros))
		}
	}
}

// WriteResolvedConfig prints the effective per method configuration of a test.
func WriteResolvedConfig(w io.Writer, config *TestConfig) {
	fmt.Fprintf(w, "Target: %s\n", config.TargetRPCURL)
	if config.RemoteRPCURL != "" {
		fmt.Fprintf(w, "Seed RPC: %s\n", config.RemoteRPCURL)
	}
	for _, r := range config.Resolve() {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		source := "global"
		if r.Overridden {
			source = "override"
		}
		limit := fmt.Sprint(r.Limit)
		if r.Limit == 0 {
			limit = "unlimited"
		}
		fmt.Fprintf(w, "   %-20s %-8s concurrency=%d duration=%ds limit=%s (%s)\n",
			r.Name, state, r.Concurrency, r.Duration, limit, source)
	}
}
