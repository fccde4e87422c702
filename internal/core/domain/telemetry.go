package domain

// Stage names one step of the resolution pipeline. Stage names double as telemetry vertex names.
type Stage string

const (
	StageOptions     Stage = "options"
	StageConstraints Stage = "constraints"
	StageBottle      Stage = "bottle"
	StageDeps        Stage = "dependencies"
	StagePatches     Stage = "patches"
	StageSynthesize  Stage = "synthesize"
)

// VertexName returns the telemetry vertex name for the stage of a package.
func (s Stage) VertexName(pkg string) string {
	return pkg + ": " + string(s)
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	LogLevelDebug LogLevel = -4
	LogLevelInfo  LogLevel = 0
	LogLevelWarn  LogLevel = 4
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
