// Package constraints checks a resolved option set against a descriptor's compatibility rules.
package constraints

import (
	"go.trai.ch/brewplan/internal/core/domain"
)

// Validate evaluates the rules in declaration order and returns the first violation.
func Validate(resolved domain.ResolvedOptionSet, facts domain.PlatformFacts, rules []domain.CompatibilityRule) error {
	for _, rule := range rules {
		var err error
		switch {
		case rule.Conflict != nil:
			err = checkConflict(resolved, rule.Conflict)
		case rule.FailsWith != nil:
			err = checkFailsWith(facts, rule.FailsWith)
		case rule.Needs != nil:
			err = checkNeeds(resolved, facts, rule.Needs)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkConflict(resolved domain.ResolvedOptionSet, rule *domain.ConflictRule) error {
	if len(rule.Matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(rule.Matches))
	values := make([]string, 0, len(rule.Matches))
	for _, m := range rule.Matches {
		v, _ := resolved.Value(m.Option)
		if v != m.Value {
			return nil
		}
		names = append(names, m.Option)
		values = append(values, m.Value)
	}
	return &domain.OptionConflictError{Options: names, Values: values, Hint: rule.Hint}
}

// checkFailsWith only fires on positive identification of the compiler.
func checkFailsWith(facts domain.PlatformFacts, rule *domain.FailsWithRule) error {
	if !rule.Matches(facts.Compiler) {
		return nil
	}
	return &domain.UnsupportedToolchainError{
		Compiler: facts.Compiler.Name,
		Version:  facts.Compiler.Version,
		Build:    facts.Compiler.Build,
		Cause:    rule.Cause,
	}
}

func checkNeeds(resolved domain.ResolvedOptionSet, facts domain.PlatformFacts, rule *domain.NeedsRule) error {
	active, err := rule.When.Eval(resolved, facts)
	if err != nil {
		return domain.WithSubject(err, "needs "+rule.Feature)
	}
	if !active || len(rule.Accept) == 0 {
		return nil
	}
	if !facts.Compiler.Known() {
		return &domain.UnresolvedDependencyPredicateError{Fact: "compiler", Subject: "needs " + rule.Feature}
	}
	missing := ""
	for _, req := range rule.Accept {
		ok, err := req.Satisfied(facts.Compiler)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if missing == "" {
			missing = req.MissingFact(facts.Compiler)
		}
	}
	// The named compiler may still qualify once its build or version is known.
	if missing != "" {
		return &domain.UnresolvedDependencyPredicateError{Fact: missing, Subject: "needs " + rule.Feature}
	}
	return &domain.UnsupportedToolchainError{
		Compiler: facts.Compiler.Name,
		Version:  facts.Compiler.Version,
		Build:    facts.Compiler.Build,
		Feature:  rule.Feature,
		Cause:    rule.Cause,
	}
}
