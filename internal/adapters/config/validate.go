package config

import (
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// validate checks the cross-references of a converted descriptor.
func validate(desc *domain.PackageDescriptor) error {
	if err := validateOptions(desc); err != nil {
		return err
	}
	if err := validateDependencies(desc); err != nil {
		return err
	}
	if err := validateBottle(desc.Bottle); err != nil {
		return err
	}
	if err := validateTest(desc); err != nil {
		return err
	}
	return validatePlaceholders(desc)
}

func validateOptions(desc *domain.PackageDescriptor) error {
	seen := make(map[string]string)
	claim := func(name, owner string) error {
		if prev, ok := seen[name]; ok && prev != owner {
			return zerr.With(zerr.With(domain.ErrDuplicateOption, "option", name), "declared_by", prev)
		}
		seen[name] = owner
		return nil
	}

	for _, o := range desc.Options {
		if err := claim(o.Name, o.Name); err != nil {
			return err
		}
	}
	for _, o := range desc.Options {
		for _, alias := range o.Aliases {
			if err := claim(alias, o.Name); err != nil {
				return err
			}
		}
	}
	for _, d := range desc.Deprecations {
		if _, ok := desc.Option(d.To); !ok {
			return zerr.With(zerr.With(domain.ErrUnknownOptionReference, "option", d.To), "deprecated", d.From)
		}
		if err := claim(d.From, d.To); err != nil {
			return err
		}
	}
	return nil
}

func validateDependencies(desc *domain.PackageDescriptor) error {
	for _, d := range desc.Dependencies {
		if d.Option == "" {
			continue
		}
		opt, ok := desc.Option(d.Option)
		if !ok {
			return zerr.With(zerr.With(domain.ErrUnknownOptionReference, "option", d.Option), "dependency", d.Name)
		}
		if opt.Kind != domain.OptionBool {
			return zerr.With(zerr.With(domain.ErrInvalidDescriptor, "dependency", d.Name), "option", d.Option)
		}
	}
	return nil
}

func validateBottle(b *domain.BottleSpec) error {
	if b == nil {
		return nil
	}
	seen := make(map[string]bool, len(b.Digests))
	for _, e := range b.Digests {
		if seen[e.Tag] {
			return zerr.With(domain.ErrDuplicateBottleTag, "tag", e.Tag)
		}
		seen[e.Tag] = true
	}
	return nil
}

func validateTest(desc *domain.PackageDescriptor) error {
	if desc.Test == nil {
		return nil
	}
	for _, name := range desc.Test.Resources {
		if _, ok := desc.Resource(name); !ok {
			return zerr.With(domain.ErrInvalidDescriptor, "resource", name)
		}
	}
	return nil
}

// placeholderCheck collects the expandable strings of a descriptor with the
// context reported for an unknown name.
type placeholderCheck struct {
	deps []string
	err  error
}

func (c *placeholderCheck) check(where string, values ...string) {
	if c.err != nil {
		return
	}
	for _, v := range values {
		for _, name := range domain.PlaceholderRefs(v) {
			if !domain.KnownPlaceholder(name) {
				c.err = &domain.UnknownPlaceholderError{Placeholder: name, Context: where}
				return
			}
			if dep, ok := strings.CutPrefix(name, domain.DepPlaceholderPrefix); ok && !slices.Contains(c.deps, dep) {
				c.err = &domain.UnknownPlaceholderError{Placeholder: name, Context: where}
				return
			}
		}
	}
}

func (c *placeholderCheck) files(files []domain.FileSpec) {
	for _, f := range files {
		for _, line := range f.Lines {
			c.check("file "+f.Path, line.Text)
		}
	}
}

func (c *placeholderCheck) step(s domain.StepSpec) {
	where := "step " + s.Name
	if s.Name == "" {
		where = "step " + s.Executable
	}
	c.check(where, s.Executable, s.WorkDir)
	c.check(where, s.Args...)
	for _, f := range s.Flags {
		c.check(where, f.Enabled...)
		c.check(where, f.Disabled...)
		c.check(where, f.Args...)
		for _, fragments := range f.Choices {
			c.check(where, fragments...)
		}
		if f.Join != nil {
			c.check(where, f.Join.Prefix)
			for _, item := range f.Join.Items {
				c.check(where, item.Value)
			}
		}
	}
}

// validatePlaceholders rejects ${name} references that can never expand.
// Dependency references must name a declared dependency; whether it is
// included is only known at resolution time.
func validatePlaceholders(desc *domain.PackageDescriptor) error {
	c := &placeholderCheck{}
	for _, d := range desc.Dependencies {
		c.deps = append(c.deps, d.Name)
	}

	c.files(desc.Environment.Files)
	for _, v := range desc.Environment.Vars {
		c.check("environment variable "+v.Name, v.Value)
	}
	if desc.Configure != nil {
		c.step(*desc.Configure)
	}
	for _, s := range desc.Build {
		c.step(s)
	}
	for i, cv := range desc.Caveats {
		c.check("caveat "+strconv.Itoa(i+1), cv.Text)
	}
	if desc.Test != nil {
		c.files(desc.Test.Files)
		for i, cmd := range desc.Test.Commands {
			where := "test command " + strconv.Itoa(i+1)
			c.check(where, cmd.Executable, cmd.WorkDir)
			c.check(where, cmd.Args...)
			if cmd.Expect != nil {
				c.check(where, cmd.Expect.Stdout)
			}
		}
	}
	return c.err
}
