package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/core/domain"
)

func elCapitan() domain.PlatformFacts {
	return domain.PlatformFacts{
		OSFamily:     domain.OSMacOS,
		OSVersion:    "10.11.6",
		OSVersionTag: "el_capitan",
		Arch:         "x86_64",
		WordSize:     64,
		Compiler:     domain.Compiler{Name: domain.CompilerClang, Version: "7.3.0", Build: 703},
		JobSlots:     8,
		Env:          map[string]string{"CIRCLECI": "true"},
	}
}

func TestCondition_Eval(t *testing.T) {
	resolved := domain.NewResolvedOptionSet([]domain.ResolvedOption{
		{Name: "mpi", Value: "true"},
		{Name: "universal", Value: "false"},
	})

	tests := []struct {
		name string
		cond *domain.Condition
		want bool
	}{
		{"nil", nil, true},
		{"empty", &domain.Condition{}, true},
		{"option match", &domain.Condition{Options: []domain.OptionMatch{{Option: "mpi", Value: "true"}}}, true},
		{"option mismatch", &domain.Condition{Options: []domain.OptionMatch{{Option: "universal", Value: "true"}}}, false},
		{"os", &domain.Condition{OS: []string{domain.OSMacOS}}, true},
		{"not os", &domain.Condition{NotOS: []string{domain.OSMacOS}}, false},
		{"arch", &domain.Condition{Arch: []string{"ppc", "i386"}}, false},
		{"not arch", &domain.Condition{NotArch: []string{"ppc"}}, true},
		{"word size", &domain.Condition{WordSize: 32}, false},
		{"compiler", &domain.Condition{Compiler: []string{domain.CompilerGCC, domain.CompilerLLVM}}, false},
		{"not compiler", &domain.Condition{NotCompiler: []string{domain.CompilerGCC}}, true},
		{"env", &domain.Condition{Env: []string{"CIRCLECI"}}, true},
		{"not env", &domain.Condition{NotEnv: []string{"CIRCLECI"}}, false},
		{"macos below codename", &domain.Condition{MacOSBelow: "mavericks"}, false},
		{"macos at least codename", &domain.Condition{MacOSAtLeast: "mavericks"}, true},
		{"macos below version", &domain.Condition{MacOSBelow: "10.12"}, true},
		{
			"any",
			&domain.Condition{Any: []domain.Condition{
				{Arch: []string{"ppc"}},
				{WordSize: 32},
				{Options: []domain.OptionMatch{{Option: "universal", Value: "true"}}},
			}},
			false,
		},
		{
			"any matches",
			&domain.Condition{Any: []domain.Condition{{Arch: []string{"ppc"}}, {OS: []string{domain.OSMacOS}}}},
			true,
		},
		{"not", &domain.Condition{Not: &domain.Condition{OS: []string{domain.OSMacOS}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Eval(resolved, elCapitan())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_Eval_UnknownFacts(t *testing.T) {
	tests := []struct {
		name  string
		cond  *domain.Condition
		facts domain.PlatformFacts
		fact  string
	}{
		{"os", &domain.Condition{OS: []string{domain.OSMacOS}}, domain.PlatformFacts{}, "os"},
		{"arch", &domain.Condition{NotArch: []string{"ppc"}}, domain.PlatformFacts{OSFamily: domain.OSLinux}, "arch"},
		{"word size", &domain.Condition{WordSize: 32}, domain.PlatformFacts{}, "word_size"},
		{"compiler", &domain.Condition{Compiler: []string{domain.CompilerGCC}}, domain.PlatformFacts{}, "compiler"},
		{"macos version", &domain.Condition{MacOSBelow: "mavericks"}, domain.PlatformFacts{OSFamily: domain.OSMacOS}, "os_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cond.Eval(domain.ResolvedOptionSet{}, tt.facts)
			var unresolved *domain.UnresolvedDependencyPredicateError
			require.True(t, errors.As(err, &unresolved))
			assert.Equal(t, tt.fact, unresolved.Fact)
		})
	}
}

func TestCondition_Eval_MacOSClauseOnLinux(t *testing.T) {
	facts := domain.PlatformFacts{OSFamily: domain.OSLinux, Arch: "x86_64", WordSize: 64}
	got, err := (&domain.Condition{MacOSBelow: "mavericks"}).Eval(domain.ResolvedOptionSet{}, facts)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCondition_OptionRefs(t *testing.T) {
	cond := &domain.Condition{
		Options: []domain.OptionMatch{{Option: "cxx11", Value: "true"}},
		Any: []domain.Condition{
			{Options: []domain.OptionMatch{{Option: "universal", Value: "true"}}},
			{Arch: []string{"ppc"}},
		},
		Not: &domain.Condition{Options: []domain.OptionMatch{{Option: "cxx11", Value: "false"}}},
	}

	assert.Equal(t, []string{"cxx11", "universal"}, cond.OptionRefs())
	assert.False(t, cond.FactsOnly())
	assert.True(t, (&domain.Condition{OS: []string{domain.OSMacOS}}).FactsOnly())

	var nilCond *domain.Condition
	assert.True(t, nilCond.FactsOnly())
}

func TestWithSubject(t *testing.T) {
	err := domain.WithSubject(&domain.UnresolvedDependencyPredicateError{Fact: "arch"}, "dependency bzip2")
	assert.EqualError(t, err, `predicate for dependency bzip2 references unknown platform fact "arch"`)

	other := errors.New("boom")
	assert.Same(t, other, domain.WithSubject(other, "x"))
}
