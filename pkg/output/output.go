// Package output renders calculation, optimization and ranking results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/optimizer"
	"github.com/iwvelando/weight-balance/internal/ranking"
	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/format"
	"github.com/iwvelando/weight-balance/pkg/validation"
)

// errWriter remembers the first write error so the renderers can print
// line by line and check once. Pretty writers localize numbers; CSV writers
// must not.
type errWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func newWriter(w io.Writer) *errWriter {
	return &errWriter{w: w}
}

func newPrettyWriter(w io.Writer) *errWriter {
	return &errWriter{w: w, p: message.NewPrinter(language.English)}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if e.p != nil {
		_, e.err = e.p.Fprintf(e.w, format, args...)
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func inside(v *balance.Variant, p balance.TrajectoryPoint) string {
	if v != nil && v.Envelope.ContainsPoint(p) {
		return "yes"
	}
	return "NO"
}

// Trajectory writes the calculation rows of traj, baseline first.
func Trajectory(w io.Writer, outputFormat, title string, traj balance.Trajectory, v *balance.Variant) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	rows := append([]balance.CalculationRow{traj.Baseline}, traj.Rows...)

	switch outputFormat {
	case constants.OutputFormatJSON:
		return writeJSON(w, traj)
	case constants.OutputFormatCSV:
		out := newWriter(w)
		out.printf(`"position","arm","weight","moment","sumWeight","sumMoment","sumBA","cg","inEnvelope"` + "\n")
		for _, r := range rows {
			out.printf("%s,\"%.2f\",\"%.0f\",\"%.0f\",\"%.0f\",\"%.0f\",\"%.4f\",\"%.4f\",%s\n",
				quote(string(r.Position)), r.MomentArm, r.Weight, r.Moment, r.SumWeight, r.SumMoment,
				r.SumBA, r.CG, quote(inside(v, r.Point())))
		}
		return out.err
	default:
		out := newPrettyWriter(w)
		out.printf("--- %s ---\n", title)
		out.printf("%-8s | %10s | %10s | %16s | %10s | %10s | %8s\n",
			"Position", "Arm", "Weight", "Moment", "Sum Weight", "Sum BA", "CG")
		out.printf("%s\n", strings.Repeat("_", 96))
		for _, r := range rows {
			out.printf("%-8s | %10s | %10s | %16s | %10s | %10s | %8s %s\n",
				r.Position, format.Arm(r.MomentArm), format.Weight(r.Weight), format.Moment(r.Moment),
				format.Weight(r.SumWeight), format.Arm(r.SumBA), format.CG(r.CG), envelopeMark(v, r.Point()))
		}
		for _, warning := range traj.Warnings() {
			out.printf("warning: %s\n", warning)
		}
		return out.err
	}
}

func envelopeMark(v *balance.Variant, p balance.TrajectoryPoint) string {
	if inside(v, p) == "yes" {
		return ""
	}
	return "(outside envelope)"
}

// Optimization writes the chosen arrangement and summary of out.
func Optimization(w io.Writer, outputFormat string, out *optimizer.Outcome, v *balance.Variant) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	res := out.Result

	switch outputFormat {
	case constants.OutputFormatJSON:
		return writeJSON(w, out)
	case constants.OutputFormatCSV:
		ew := newWriter(w)
		ew.printf(`"position","initialWeight","finalWeight"` + "\n")
		for i, item := range res.Arrangement {
			initial := 0.0
			if i < len(out.Record.InitialWeights) {
				initial = out.Record.InitialWeights[i]
			}
			ew.printf("%s,\"%.0f\",\"%.0f\"\n", quote(string(item.Position)), initial, item.Weight)
		}
		return ew.err
	default:
		ew := newPrettyWriter(w)
		ew.printf("--- Optimization (%s) for pattern %s ---\n", res.Method, out.Record.Pattern)
		ew.printf("Success: %t | Feasible: %t | Iterations: %d | Stopped: %s\n",
			res.Success, res.Feasible, res.Iterations, res.Stopped)
		ew.printf("Initial CG: %s | Final CG: %s | Change: %s\n",
			format.CG(out.Record.InitialCG), format.CG(out.Record.FinalCG),
			format.Delta(out.Record.FinalCG-out.Record.InitialCG))
		ew.printf("Total weight: %s | Envelope violations: %d\n",
			format.Weight(out.Record.TotalWeight), out.Record.ViolationCount)
		for _, alt := range out.Alternatives {
			ew.printf("  %-8s success=%t feasible=%t objective=%.3f\n",
				alt.Method, alt.Success, alt.Feasible, alt.Objective)
		}
		for _, warning := range out.Warnings {
			ew.printf("warning: %s\n", warning)
		}
		ew.printf("\n")
		if ew.err != nil {
			return ew.err
		}
		return Trajectory(w, outputFormat, "Optimized loading", out.Final, v)
	}
}

// Window writes an opportunity window.
func Window(w io.Writer, outputFormat string, win optimizer.Window) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatJSON:
		return writeJSON(w, win)
	case constants.OutputFormatCSV:
		ew := newWriter(w)
		ew.printf(`"minCG","maxCG","weight","empty","candidates"` + "\n")
		ew.printf("\"%.4f\",\"%.4f\",\"%.0f\",\"%t\",\"%d\"\n", win.MinCG, win.MaxCG, win.Weight, win.Empty, win.Candidates)
		return ew.err
	default:
		ew := newPrettyWriter(w)
		if win.Empty {
			ew.printf("Opportunity window: empty at %s (%d candidates)\n", format.Weight(win.Weight), win.Candidates)
			return ew.err
		}
		ew.printf("Opportunity window: %s to %s at %s (%d candidates)\n",
			format.CG(win.MinCG), format.CG(win.MaxCG), format.Weight(win.Weight), win.Candidates)
		return ew.err
	}
}

// Direction writes a directional search result.
func Direction(w io.Writer, outputFormat string, res optimizer.DirectionalResult) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatJSON:
		return writeJSON(w, res)
	case constants.OutputFormatCSV:
		ew := newWriter(w)
		ew.printf(`"position","weight"` + "\n")
		for _, item := range res.Arrangement {
			ew.printf("%s,\"%.0f\"\n", quote(string(item.Position)), item.Weight)
		}
		return ew.err
	default:
		ew := newPrettyWriter(w)
		if !res.Found {
			ew.printf("No %s arrangement found after %d attempts\n", res.Direction, res.Attempts)
			return ew.err
		}
		ew.printf("Most %s arrangement: final CG %s at %s (%d attempts)\n",
			res.Direction, format.CG(res.FinalCG), format.Weight(res.FinalWeight), res.Attempts)
		for _, item := range res.Arrangement {
			ew.printf("  %-8s %10s\n", item.Position, format.Weight(item.Weight))
		}
		return ew.err
	}
}

// Rankings writes ranked patterns followed by the analytics summary.
func Rankings(w io.Writer, outputFormat string, entries []ranking.Entry, analytics ranking.Analytics) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatJSON:
		return writeJSON(w, struct {
			Rankings  []ranking.Entry   `json:"rankings"`
			Analytics ranking.Analytics `json:"analytics"`
		}{entries, analytics})
	case constants.OutputFormatCSV:
		ew := newWriter(w)
		ew.printf(`"rank","pattern","score","successRate","uses","avgCGDeviation","avgTimeMs","rating"` + "\n")
		for _, e := range entries {
			ew.printf("\"%d\",%s,\"%.2f\",\"%.4f\",\"%d\",\"%.4f\",\"%.2f\",\"%.1f\"\n",
				e.Rank, quote(e.Pattern), e.Score, e.Stats.SuccessRate, e.Stats.UsageCount,
				e.Stats.AvgCGDeviation, e.Stats.AvgOptimizationTimeMs, e.Stats.UserRating)
		}
		return ew.err
	default:
		ew := newPrettyWriter(w)
		ew.printf("%-4s | %-16s | %7s | %8s | %6s | %6s\n", "Rank", "Pattern", "Score", "Success", "Uses", "Rating")
		ew.printf("%s\n", strings.Repeat("_", 62))
		for _, e := range entries {
			ew.printf("%-4d | %-16s | %7.2f | %7.1f%% | %6d | %6.1f\n",
				e.Rank, e.Pattern, e.Score, e.Stats.SuccessRate*100, e.Stats.UsageCount, e.Stats.UserRating)
		}
		ew.printf("\nOptimizations: %d across %d patterns, average success %.1f%%, most used method %s\n",
			analytics.TotalOptimizations, analytics.TotalPatterns, analytics.AvgSuccessRate*100, analytics.MostUsedMethod)
		if analytics.BestPattern != "" {
			ew.printf("Best pattern: %s\n", analytics.BestPattern)
		}
		return ew.err
	}
}
