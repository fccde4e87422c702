// Package shell provides the shell executor adapter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger   ports.Logger
	verifier ports.Verifier
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, verifier ports.Verifier) *Executor {
	return &Executor{
		logger:   logger,
		verifier: verifier,
	}
}

// Execute runs the plan's steps in order inside workDir.
// Every input artifact is verified against its digest before the step that
// needs it runs. Environment set by setenv steps applies to all later steps,
// on top of os.Environ().
func (e *Executor) Execute(ctx context.Context, plan *domain.BuildPlan, workDir, artifactDir string) error {
	run := &planRun{
		e:           e,
		workDir:     workDir,
		artifactDir: artifactDir,
		env:         os.Environ(),
	}
	for i := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := &plan.Steps[i]
		if err := run.step(ctx, step); err != nil {
			return zerr.With(zerr.With(err, "step", stepLabel(step)), "phase", string(step.Phase))
		}
	}
	return nil
}

func stepLabel(step *domain.CommandStep) string {
	if step.Name != "" {
		return step.Name
	}
	if step.Executable != "" {
		return step.Executable
	}
	return string(step.Kind)
}

type planRun struct {
	e           *Executor
	workDir     string
	artifactDir string
	env         []string
}

func (r *planRun) step(ctx context.Context, step *domain.CommandStep) error {
	inputs, err := r.verifyInputs(step.Inputs)
	if err != nil {
		return err
	}

	switch step.Kind {
	case domain.StepExec:
		return r.exec(ctx, step, inputs)
	case domain.StepWriteFile:
		return r.writeFile(step)
	case domain.StepSetenv:
		r.env = resolveEnvironment(r.env, step.Env)
		return nil
	case domain.StepPour:
		for _, in := range inputs {
			r.e.logger.Info("verified prebuilt artifact " + filepath.Base(in))
		}
		if step.Message != "" {
			r.e.logger.Info(step.Message)
		}
		return nil
	case domain.StepAdvisory:
		r.e.logger.Warn(step.Message)
		return nil
	default:
		return zerr.With(domain.ErrUnknownStepKind, "kind", string(step.Kind))
	}
}

// verifyInputs returns the local paths of the step's inputs after checking their digests.
func (r *planRun) verifyInputs(inputs []domain.Artifact) ([]string, error) {
	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		path := filepath.Join(r.artifactDir, in.Name)
		if err := r.e.verifier.VerifyArtifact(path, in.Digest); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *planRun) dir(rel string) (string, error) {
	dir := r.workDir
	if rel != "" {
		if filepath.IsAbs(rel) {
			dir = rel
		} else {
			dir = filepath.Join(r.workDir, rel)
		}
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create working directory"), "path", dir)
	}
	return dir, nil
}

func (r *planRun) writeFile(step *domain.CommandStep) error {
	if step.File == nil {
		return nil
	}
	dir, err := r.dir(step.WorkDir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, step.File.Path)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", path)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if step.File.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, filePerm) //nolint:gosec // Path is constructed from the plan's work dir
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	if _, err := f.WriteString(step.File.Content); err != nil {
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	return nil
}

func (r *planRun) exec(ctx context.Context, step *domain.CommandStep, inputs []string) error {
	if step.Executable == "" {
		return nil
	}
	dir, err := r.dir(step.WorkDir)
	if err != nil {
		return err
	}

	name := step.Executable
	executable := name
	if !filepath.IsAbs(name) && !strings.Contains(name, string(filepath.Separator)) {
		if lp, err := lookPath(name, r.env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, step.Args...) //nolint:gosec // Commands come from the compiled plan
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = dir
	cmd.Env = r.env

	// Patch steps read their verified patch file on stdin.
	if step.Phase == domain.PhasePatch && len(inputs) > 0 {
		patch, err := os.Open(inputs[0]) //nolint:gosec // Path is a verified artifact
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open patch"), "path", inputs[0])
		}
		defer patch.Close() //nolint:errcheck // Best effort close in defer
		cmd.Stdin = patch
	}

	stdout, stderr, flush := r.outputs(ctx)
	var captured bytes.Buffer
	if step.Expect != nil {
		stdout = io.MultiWriter(stdout, &captured)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	flush()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return zerr.With(zerr.Wrap(runErr, domain.ErrStepFailed.Error()), "exit_code", -1)
		}
		exitCode = exitErr.ExitCode()
	}

	if step.Expect == nil {
		if runErr != nil {
			return zerr.With(zerr.Wrap(runErr, domain.ErrStepFailed.Error()), "exit_code", exitCode)
		}
		return nil
	}
	return checkExpectation(step.Expect, exitCode, captured.String())
}

func checkExpectation(expect *domain.Expectation, exitCode int, stdout string) error {
	if exitCode != expect.ExitCode {
		return zerr.With(zerr.With(domain.ErrExpectationFailed, "exit_code", exitCode), "expected_exit_code", expect.ExitCode)
	}
	if expect.Stdout != "" && !strings.Contains(stdout, expect.Stdout) {
		return zerr.With(domain.ErrExpectationFailed, "expected_stdout", expect.Stdout)
	}
	return nil
}

// outputs returns the writers for a command. Output goes to the vertex carried
// by ctx when there is one, and to the logger otherwise.
func (r *planRun) outputs(ctx context.Context) (stdout, stderr io.Writer, flush func()) {
	if vertex, ok := ports.VertexFromContext(ctx); ok {
		return vertex.Stdout(), vertex.Stderr(), func() {}
	}
	out := &logWriter{logger: r.e.logger, level: domain.LogLevelInfo}
	errOut := &logWriter{logger: r.e.logger, level: domain.LogLevelError}
	return out, errOut, func() {
		out.Flush()
		errOut.Flush()
	}
}

// logWriter forwards complete lines to the logger, buffering partial ones.
type logWriter struct {
	logger ports.Logger
	level  domain.LogLevel
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *logWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}

func (w *logWriter) emit(line string) {
	line = strings.TrimSuffix(line, "\r")
	if w.level == domain.LogLevelError {
		w.logger.Error(zerr.New(line))
		return
	}
	w.logger.Info(line)
}

// resolveEnvironment applies the overrides on top of base. A PATH override
// is prepended to the existing PATH. The result is sorted by name.
func resolveEnvironment(base, overrides []string) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	for _, entry := range overrides {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
