package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/tools/staticcheck"
)

func TestMatchesAny(t *testing.T) {
	type tTestCase struct {
		name     string
		check    string
		patterns []string
		want     bool
	}
	testCases := []tTestCase{
		{name: "exact", check: "SA1019", patterns: []string{"SA1019"}, want: true},
		{name: "prefix", check: "SA4006", patterns: []string{"SA1*", "SA4*"}, want: true},
		{name: "prefix mismatch", check: "SA5001", patterns: []string{"SA4*"}, want: false},
		{name: "exact mismatch", check: "SA1019", patterns: []string{"SA101"}, want: false},
		{name: "no patterns", check: "SA1019", patterns: nil, want: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, matchesAny(testCase.check, testCase.patterns))
		})
	}
}

func TestSelectChecks(t *testing.T) {
	selected := selectChecks(staticcheck.Analyzers, []string{"SA4*"})

	require.NotEmpty(t, selected)
	for _, a := range selected {
		assert.Regexp(t, `^SA4`, a.Name)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"staticcheck": ["SA1*"], "stylecheck": ["ST1005"]}`), 0o600))
	t.Setenv(configEnv, path)

	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"SA1*"}, cfg.Staticcheck)
	assert.Empty(t, cfg.Simple)
	assert.Equal(t, []string{"ST1005"}, cfg.Stylecheck)
}
