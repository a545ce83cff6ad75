package main

import (
	"fmt"
	"io"

	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
			if e.ConflictWith != "" {
				fmt.Fprintf(w, "    conflicts with: %s\n", e.ConflictWith)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, res := range r.Warnings {
			printResult(w, res)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, res validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", res.Level, res.Message)
	if res.SpecPath != "" {
		fmt.Fprintf(w, "    -> %s = %v\n", res.SpecPath, res.ActualValue)
	}
	if res.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", res.Expected)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printPlanSummary(w io.Writer, res *result.PlanningResult) {
	title := res.Name
	if title == "" {
		title = "Plan"
	}
	fmt.Fprintln(w, title)
	for range title {
		fmt.Fprint(w, "=")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Parcel area:        %s\n", formatArea(res.BoundaryAreaSqm))
	fmt.Fprintf(w, "  Structure area:     %s\n", formatArea(res.TotalStructureArea))
	fmt.Fprintf(w, "  Coverage:           %.1f%%\n", res.CoveragePercentage)
	fmt.Fprintf(w, "  Buildable:          %.1f%%\n", res.BuildableAreaPercentage)
	fmt.Fprintf(w, "  Restricted zones:   %d\n", len(res.RestrictedZones))
	fmt.Fprintf(w, "  Termination:        %s\n", res.TerminationReason)
	if res.Degraded {
		fmt.Fprintf(w, "  Terrain degraded:   %s\n", res.DegradedReason)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-10s %-8s %10s %10s %10s %16s\n", "ID", "Tier", "Rotation", "Width", "Length", "Area")
	fmt.Fprintf(w, "%-10s %-8s %10s %10s %10s %16s\n", "----------", "--------", "----------", "----------", "----------", "----------------")
	for _, s := range res.Structures {
		fmt.Fprintf(w, "%-10s %-8s %10.1f %10.1f %10.1f %16s\n", s.ID, s.Tier, s.RotationDegrees, s.Width, s.Length, formatArea(s.Area))
	}
	fmt.Fprintln(w)

	t := res.Adjacency.Totals
	fmt.Fprintf(w, "Blocks: %d corner, %d edge, %d inner corner, %d interior\n", t.Corner90, t.Edge180, t.InnerCorner270, t.Interior)
}

func printSolarWindow(w io.Writer, lat float64, win solar.OrientationWindow, orientations []float64) {
	fmt.Fprintf(w, "Latitude:           %.4f\n", lat)
	fmt.Fprintf(w, "Allowed deviation:  ±%.2f°\n", win.AllowedDeviationDegrees)
	fmt.Fprint(w, "Candidate angles:  ")
	for _, a := range orientations {
		fmt.Fprintf(w, " %.2f°", a)
	}
	fmt.Fprintln(w)
}

func formatArea(v float64) string {
	if v >= 10_000 {
		return fmt.Sprintf("%.0f m² (%.2f ha)", v, v/10_000)
	}
	return fmt.Sprintf("%.0f m²", v)
}
