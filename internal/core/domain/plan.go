package domain

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Phase orders the steps of a plan.
type Phase string

const (
	PhasePatch     Phase = "patch"
	PhasePrepare   Phase = "prepare"
	PhaseConfigure Phase = "configure"
	PhaseBuild     Phase = "build"
	PhaseInstall   Phase = "install"
	PhaseBottle    Phase = "bottle"
	PhaseCaveat    Phase = "caveat"
	PhaseTest      Phase = "test"
)

// StepKind tells the executor how to carry out a step.
type StepKind string

const (
	// StepExec runs Executable with Args.
	StepExec StepKind = "exec"
	// StepWriteFile writes File.
	StepWriteFile StepKind = "write-file"
	// StepSetenv adds Env to the environment of subsequent steps.
	StepSetenv StepKind = "setenv"
	// StepPour installs a verified prebuilt artifact.
	StepPour StepKind = "pour"
	// StepAdvisory is surfaced to the caller and never executed.
	StepAdvisory StepKind = "advisory"
)

// Artifact is an input a step needs fetched and verified.
type Artifact struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Mirrors []string `json:"mirrors,omitempty"`
	Digest  Digest   `json:"digest,omitzero"`
	Branch  string   `json:"branch,omitempty"`
}

// FileContent is the payload of a write-file step.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Append  bool   `json:"append,omitempty"`
}

// Expectation is compared by the test runner against the terminal test step.
type Expectation struct {
	Stdout   string `json:"stdout,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// CommandStep is one entry of a plan.
type CommandStep struct {
	Phase      Phase        `json:"phase"`
	Kind       StepKind     `json:"kind"`
	Name       string       `json:"name,omitempty"`
	Executable string       `json:"executable,omitempty"`
	Args       []string     `json:"args,omitempty"`
	WorkDir    string       `json:"workdir,omitempty"`
	Env        []string     `json:"env,omitempty"`
	File       *FileContent `json:"file,omitempty"`
	Inputs     []Artifact   `json:"inputs,omitempty"`
	Expect     *Expectation `json:"expect,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// BottleRef identifies the prebuilt artifact a plan pours.
type BottleRef struct {
	Tag     string `json:"tag"`
	URL     string `json:"url"`
	Digest  Digest `json:"digest"`
	Cellar  string `json:"cellar,omitempty"`
	Rebuild int    `json:"rebuild,omitempty"`
}

// BuildPlan is the ordered, immutable output of a resolution.
type BuildPlan struct {
	Package      string               `json:"package"`
	Version      string               `json:"version"`
	Head         bool                 `json:"head,omitempty"`
	Source       Artifact             `json:"source"`
	Bottle       *BottleRef           `json:"bottle,omitempty"`
	Options      []ResolvedOption     `json:"options,omitempty"`
	Steps        []CommandStep        `json:"steps"`
	Dependencies []DependencyDecision `json:"dependencies,omitempty"`
	Diagnostics  []DependencyDecision `json:"diagnostics,omitempty"`
	Advisories   []string             `json:"advisories,omitempty"`
	Fingerprint  string               `json:"fingerprint,omitempty"`
}

// Poured reports whether the plan installs a prebuilt artifact.
func (p *BuildPlan) Poured() bool {
	return p.Bottle != nil
}

// StepsIn returns the steps of the given phase in plan order.
func (p *BuildPlan) StepsIn(phase Phase) []CommandStep {
	var out []CommandStep
	for _, s := range p.Steps {
		if s.Phase == phase {
			out = append(out, s)
		}
	}
	return out
}

// Canonical returns the JSON encoding of the plan with the fingerprint cleared.
func (p *BuildPlan) Canonical() ([]byte, error) {
	clone := *p
	clone.Fingerprint = ""
	return json.Marshal(&clone)
}

// Seal computes and stores the plan fingerprint.
func (p *BuildPlan) Seal() error {
	data, err := p.Canonical()
	if err != nil {
		return err
	}
	p.Fingerprint = fmt.Sprintf("%016x", xxhash.Sum64(data))
	return nil
}
