// Command unblob recursively extracts known file formats from an input
// blob or directory. Grounded on cmd/siac/main.go's cobra-based flag/root
// command wiring, adapted from a daemon-talking client to a standalone
// extraction tool.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ARDIEY21/unblob/build"
	"github.com/ARDIEY21/unblob/handler"
	"github.com/ARDIEY21/unblob/handlers/chk"
	"github.com/ARDIEY21/unblob/handlers/gzip"
	"github.com/ARDIEY21/unblob/ledger"
	"github.com/ARDIEY21/unblob/orchestrate"
	"github.com/ARDIEY21/unblob/persist"
	"github.com/ARDIEY21/unblob/ratelimit"
	"github.com/ARDIEY21/unblob/statusapi"
)

// Exit codes, following the convention set by cmd/siac/main.go.
const (
	exitCodeGeneral = 1
	exitCodeUsage   = 64
)

var (
	// Flags.
	extractRoot  string
	maxDepth     int
	entropyDepth int
	entropyPlot  bool
	workers      int
	keepChunks   bool
	verbosity    int
	logPath      string
	statusAddr   string
	writeBPS     int64
	resume       bool
	noManifest   bool
)

func builtinHandlers() handler.Handlers {
	return handler.New(
		handler.Tier{chk.New()},
		handler.Tier{gzip.New()},
	)
}

func run(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		cmd.Usage()
		os.Exit(exitCodeUsage)
	}
	path := args[0]

	if writeBPS > 0 {
		ratelimit.SetLimits(0, writeBPS, 1<<16)
	}

	if extractRoot == "" {
		extractRoot = path + "_extract"
	}
	if err := os.MkdirAll(extractRoot, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "unblob:", err)
		os.Exit(exitCodeGeneral)
	}

	var log *persist.Logger
	if logPath != "" {
		l, err := persist.NewLogger(logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "unblob:", err)
			os.Exit(exitCodeGeneral)
		}
		defer l.Close()
		log = l
	}

	config := orchestrate.DefaultConfig()
	config.ExtractRoot = extractRoot
	config.MaxDepth = maxDepth
	config.EntropyDepth = entropyDepth
	config.EntropyPlot = entropyPlot
	config.KeepExtractedChunks = keepChunks
	config.Handlers = builtinHandlers()
	config.Logger = log
	config.Verbosity = verbosity
	if workers > 0 {
		config.Workers = workers
	}
	if noManifest {
		config.Manifest = nil
	}

	if resume {
		l, err := ledger.Open(filepath.Join(extractRoot, ".unblob.ledger"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "unblob:", err)
			os.Exit(exitCodeGeneral)
		}
		defer l.Close()
		config.Ledger = l
	}

	if statusAddr != "" {
		reports, err := orchestrate.ProcessFile(config, path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "unblob:", err)
			os.Exit(exitCodeGeneral)
		}
		hub := statusapi.NewHub(reports)
		fmt.Fprintln(os.Stderr, "unblob: serving status on", statusAddr)
		if err := http.ListenAndServe(statusAddr, hub.Handler()); err != nil {
			fmt.Fprintln(os.Stderr, "unblob:", err)
		}
		os.Exit(reports.ExitCode())
	}

	reports, err := orchestrate.ProcessFile(config, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unblob:", err)
		os.Exit(exitCodeGeneral)
	}
	for _, rep := range reports.Snapshot() {
		fmt.Printf("[%s] %s: %s\n", rep.Severity, rep.Path, rep.Message)
	}
	os.Exit(reports.ExitCode())
}

func main() {
	root := &cobra.Command{
		Use:   "unblob <path>",
		Short: "unblob v" + build.Version,
		Long:  "unblob v" + build.Version + " - recursive extractor for arbitrary binary blobs",
		Run:   run,
	}

	root.Flags().StringVarP(&extractRoot, "extract-root", "e", "", "directory extracted files are written under (default: <path>_extract)")
	root.Flags().IntVarP(&maxDepth, "depth", "d", 10, "maximum recursion depth")
	root.Flags().IntVar(&entropyDepth, "entropy-depth", 10, "maximum depth at which entropy is calculated for unknown chunks")
	root.Flags().BoolVar(&entropyPlot, "entropy-plot", false, "render an ASCII entropy plot for unknown chunks")
	root.Flags().IntVarP(&workers, "processes", "p", 0, "number of parallel workers (default: number of CPUs)")
	root.Flags().BoolVarP(&keepChunks, "keep-chunks", "k", false, "keep carved chunk files after extraction")
	root.Flags().IntVarP(&verbosity, "verbose", "v", 0, "debug log verbosity")
	root.Flags().StringVarP(&logPath, "log", "l", "", "write a debug log to this file")
	root.Flags().StringVar(&statusAddr, "status-addr", "", "once processing finishes, serve the run's status API on this address instead of exiting")
	root.Flags().Int64Var(&writeBPS, "write-bps", 0, "cap carve write throughput to this many bytes per second (0: unlimited)")
	root.Flags().BoolVar(&resume, "resume", false, "track completed tasks in a run ledger under extract-root, skipping them on a rerun")
	root.Flags().BoolVar(&noManifest, "no-manifest", false, "skip writing MANIFEST.json for this run")

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeUsage)
	}
}
