// Package main implements a multichecker that runs a set of static analysis
// analyzers on Go code.
//
// This tool runs a collection of analyzers including:
// - Standard analyzers from golang.org/x/tools/go/analysis/passes
// - A custom analyzer that forbids direct calls to os.Exit in main.main
// - A custom analyzer that keeps context.Context the first parameter
//
// Usage:
//
//	go run ./cmd/staticlint ./...
//	./staticlint ./...
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	"github.com/sbilibin2017/gophrt/cmd/staticlint/analyzers"
)

func main() {
	multichecker.Main(
		atomic.Analyzer,
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unusedresult.Analyzer,
		analyzers.NoOsExitMainAnalyzer,
		analyzers.ContextFirstAnalyzer,
	)
}
