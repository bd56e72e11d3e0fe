// Command qcache-inspect prints the calibrated q-cache entries found in a
// cache directory.
//
// Usage:
//
//	qcache-inspect [flags] <dir>
//
// Examples:
//
//	qcache-inspect ./qcache
//	qcache-inspect -quantile 0.95 ./qcache
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/cwbudde/algo-smre/qcache"
)

func main() {
	quantile := flag.Float64("quantile", qcache.DefaultQuantile, "quantile to recompute q at")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qcache-inspect [flags] <dir>\n\n")
		fmt.Fprintf(os.Stderr, "Lists the calibration entries found in a q-cache directory.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	entries, err := qcache.Inspect(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no cache entries found in %s\n", dir)
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	printEntries(entries, *quantile)
}

func printEntries(entries []qcache.InspectedEntry, quantile float64) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File\tShape\tKernels\tResolvent\tDelta\tSteps\tPenalized\tQ\n")
	for _, e := range entries {
		resolvent := "l2"
		if e.Key.Resolvent == qcache.ResolventH1 {
			resolvent = "h1"
		}
		q := qcache.QuantileOf(e.Entry, quantile)
		fmt.Fprintf(tw, "%s\t%dx%d\t%v\t%s\t%v\t%d\t%v\t%v\n",
			filepath.Base(e.Path), e.Key.Shape.H, e.Key.Shape.W, e.Key.KernelSizes,
			resolvent, e.Key.Delta, e.Key.MonteCarloSteps, e.Key.PenalizedScan, q)
	}
	tw.Flush()
}
