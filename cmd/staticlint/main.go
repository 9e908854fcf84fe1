// Command staticlint is the console's multichecker. It runs the vet passes
// that matter for an HTTP service built around contexts and wrapped errors,
// ineffassign and nilerr, the tokenlog analyzer that keeps credentials out
// of the logs, and whichever honnef.co/go/tools checks config.json enables.
//
// config.json is looked up next to the binary unless STATICLINT_CONFIG
// points elsewhere. Each list accepts exact check names ("SA1019") or a
// prefix ending in "*" ("SA4*").
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/patric-chuzhbe/shopconsole/cmd/staticlint/tokenlog"
)

const (
	configFile = `config.json`
	configEnv  = `STATICLINT_CONFIG`
)

// ConfigData selects the honnef.co/go/tools checks to run, per suite.
type ConfigData struct {
	Staticcheck []string `json:"staticcheck"`
	Simple      []string `json:"simple"`
	Stylecheck  []string `json:"stylecheck"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,     // dashboard state and the registry hold mutexes
		errorsas.Analyzer,     // errors.As targets must be pointers
		httpresponse.Analyzer, // response used before the error check
		loopclosure.Analyzer,
		lostcancel.Analyzer, // every bound view context needs its cancel
		nilness.Analyzer,
		printf.Analyzer,
		structtag.Analyzer, // json, env and validate tags
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		tokenlog.Analyzer,
	}

	checks = append(checks, selectChecks(staticcheck.Analyzers, cfg.Staticcheck)...)
	checks = append(checks, selectChecks(simple.Analyzers, cfg.Simple)...)
	checks = append(checks, selectChecks(stylecheck.Analyzers, cfg.Stylecheck)...)

	multichecker.Main(checks...)
}

func loadConfig() (*ConfigData, error) {
	path := os.Getenv(configEnv)
	if path == "" {
		appfile, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `os.Executable()` calling: %w", err)
		}
		path = filepath.Join(filepath.Dir(appfile), configFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `os.ReadFile()` calling: %w", err)
	}

	var cfg ConfigData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `json.Unmarshal()` calling: %w", err)
	}

	return &cfg, nil
}

// selectChecks returns the analyzers of suite whose names match patterns.
func selectChecks(suite []*lint.Analyzer, patterns []string) []*analysis.Analyzer {
	var selected []*analysis.Analyzer
	for _, a := range suite {
		if matchesAny(a.Analyzer.Name, patterns) {
			selected = append(selected, a.Analyzer)
		}
	}

	return selected
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}

	return false
}
