// Package render prints build plans and option listings as text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

const labelWidth = 12

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer.
type Renderer struct {
	styled bool
}

// New creates a Renderer. Text output is styled with lipgloss when styled is true.
func New(styled bool) *Renderer {
	return &Renderer{styled: styled}
}

// RenderPlans writes the plans in request order. JSON output is a single
// object for one plan and an array otherwise.
func (r *Renderer) RenderPlans(w io.Writer, format domain.OutputFormat, plans []*domain.BuildPlan) error {
	switch format {
	case domain.FormatJSON:
		if len(plans) == 1 {
			return writeJSON(w, plans[0])
		}
		return writeJSON(w, plans)
	case domain.FormatText, "":
		var b strings.Builder
		for i, plan := range plans {
			if i > 0 {
				b.WriteString("\n")
			}
			r.plan(&b, plan)
		}
		return writeString(w, b.String())
	default:
		return zerr.With(domain.ErrUnsupportedOutputFormat, "format", string(format))
	}
}

// OptionInfo is the JSON form of one declared option.
type OptionInfo struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Default      string   `json:"default"`
	Choices      []string `json:"choices,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	Description  string   `json:"description,omitempty"`
	AffectsBuild bool     `json:"affects_build"`
}

// RenderOptions writes the options desc declares, in declaration order.
func (r *Renderer) RenderOptions(w io.Writer, format domain.OutputFormat, desc *domain.PackageDescriptor) error {
	infos := make([]OptionInfo, 0, len(desc.Options))
	for _, o := range desc.Options {
		infos = append(infos, OptionInfo{
			Name:         o.Name,
			Kind:         string(o.Kind),
			Default:      o.DefaultValue(),
			Choices:      o.Choices,
			Aliases:      o.Aliases,
			Description:  o.Description,
			AffectsBuild: desc.AffectsBuild(o.Name),
		})
	}

	switch format {
	case domain.FormatJSON:
		return writeJSON(w, infos)
	case domain.FormatText, "":
		var b strings.Builder
		if len(infos) == 0 {
			fmt.Fprintf(&b, "%s declares no options\n", desc.Name)
			return writeString(w, b.String())
		}
		for _, o := range infos {
			flag := "--with-" + o.Name
			switch {
			case o.Kind == string(domain.OptionEnum):
				flag = "--" + o.Name + "=" + strings.Join(o.Choices, "|")
			case o.Default == "true":
				flag = "--without-" + o.Name
			}
			b.WriteString(r.paint(sectionStyle, flag))
			b.WriteString("\n")
			if o.Description != "" {
				fmt.Fprintf(&b, "\t%s\n", o.Description)
			}
			if len(o.Aliases) > 0 {
				fmt.Fprintf(&b, "\taliases: %s\n", strings.Join(o.Aliases, ", "))
			}
			if !o.AffectsBuild {
				b.WriteString(r.paint(omittedStyle, "\tno effect on build flags"))
				b.WriteString("\n")
			}
		}
		return writeString(w, b.String())
	default:
		return zerr.With(domain.ErrUnsupportedOutputFormat, "format", string(format))
	}
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *Renderer) field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %-*s %s\n", labelWidth, label, value)
}

func (r *Renderer) section(b *strings.Builder, title string) {
	b.WriteString("\n")
	b.WriteString(r.paint(sectionStyle, title))
	b.WriteString("\n")
}

func (r *Renderer) plan(b *strings.Builder, plan *domain.BuildPlan) {
	b.WriteString(r.paint(titleStyle, plan.Package+" "+plan.Version))
	b.WriteString("\n")

	r.field(b, "source", artifact(plan.Source))
	if plan.Bottle != nil {
		r.field(b, "bottle", plan.Bottle.Tag+" "+plan.Bottle.URL)
	}
	if len(plan.Options) > 0 {
		pairs := make([]string, len(plan.Options))
		for i, o := range plan.Options {
			pairs[i] = o.Name + "=" + o.Value
		}
		r.field(b, "options", strings.Join(pairs, " "))
	}
	r.field(b, "fingerprint", plan.Fingerprint)

	if len(plan.Dependencies) > 0 {
		r.section(b, "Dependencies")
		for _, d := range plan.Dependencies {
			b.WriteString("  " + r.paint(includedStyle, dependency(d)) + "\n")
		}
	}
	if len(plan.Diagnostics) > 0 {
		r.section(b, "Omitted")
		for _, d := range plan.Diagnostics {
			b.WriteString("  " + r.paint(omittedStyle, dependency(d)) + "\n")
		}
	}

	r.section(b, "Steps")
	for _, s := range plan.Steps {
		fmt.Fprintf(b, "  %s %s\n", r.paint(phaseStyle, fmt.Sprintf("%-*s", labelWidth, s.Phase)), step(s))
	}

	if len(plan.Advisories) > 0 {
		r.section(b, "Advisories")
		for _, a := range plan.Advisories {
			b.WriteString("  " + r.paint(advisoryStyle, "! "+a) + "\n")
		}
	}
}

func artifact(a domain.Artifact) string {
	s := a.URL
	if a.Branch != "" {
		s += " (" + a.Branch + ")"
	}
	if !a.Digest.IsZero() {
		s += " " + a.Digest.String()
	}
	return s
}

func dependency(d domain.DependencyDecision) string {
	parts := []string{d.Name, string(d.Kind), string(d.Class)}
	if len(d.Tags) > 0 {
		parts = append(parts, "["+strings.Join(d.Tags, ", ")+"]")
	}
	if d.Requirement {
		parts = append(parts, "requirement")
	}
	if d.Prefix != "" {
		parts = append(parts, d.Prefix)
	}
	if d.Reason != "" {
		parts = append(parts, "("+d.Reason+")")
	}
	return strings.Join(parts, " ")
}

func step(s domain.CommandStep) string {
	var out string
	switch s.Kind {
	case domain.StepExec:
		words := make([]string, 0, len(s.Args)+1)
		words = append(words, quote(s.Executable))
		for _, a := range s.Args {
			words = append(words, quote(a))
		}
		out = strings.Join(words, " ")
		if s.Phase == domain.PhasePatch && len(s.Inputs) > 0 {
			out += " < " + s.Inputs[0].Name
		}
	case domain.StepWriteFile:
		if s.File != nil {
			out = "write " + s.File.Path
			if s.File.Append {
				out += " (append)"
			}
		}
	case domain.StepSetenv:
		out = "setenv " + strings.Join(s.Env, " ")
	case domain.StepPour:
		out = "pour"
		if len(s.Inputs) > 0 {
			out += " " + s.Inputs[0].Name
		}
	default:
		out = s.Message
	}

	if s.WorkDir != "" {
		out += " (in " + s.WorkDir + ")"
	}
	if s.Expect != nil {
		expect := "expect exit " + strconv.Itoa(s.Expect.ExitCode)
		if s.Expect.Stdout != "" {
			expect += ", stdout " + strconv.Quote(s.Expect.Stdout)
		}
		out += " [" + expect + "]"
	}
	return out
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return strconv.Quote(s)
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return zerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return zerr.Wrap(err, "failed to write output")
	}
	return nil
}
