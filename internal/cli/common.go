package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Version information for all CLI tools
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-18"
)

// CommitSHA is set during build with -ldflags.
var CommitSHA = "unknown"

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	IRFormat  string `json:"ir_format"`
	DocFormat string `json:"doc_format"`
}

// GetVersionInfo returns structured version information. irFormat and
// docFormat name the IR and AST document format versions the tool speaks.
func GetVersionInfo(irFormat, docFormat string) *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		IRFormat:  irFormat,
		DocFormat: docFormat,
	}
}

// PrintVersion prints version information in a consistent format
func PrintVersion(w io.Writer, toolName string, info *VersionInfo, jsonOutput bool) error {
	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
	}
	fmt.Fprintf(w, "IR Format: %s\n", info.IRFormat)
	fmt.Fprintf(w, "Document Format: %s\n", info.DocFormat)
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	_, err := fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
	return err
}

// Logger provides structured logging for CLI tools. It is safe for
// concurrent use.
type Logger struct {
	Verbose   bool
	DebugMode bool

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer, verbose, debug bool) *Logger {
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		out:       w,
		now:       time.Now,
	}
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s: %s\n", level, l.now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose || l.DebugMode {
		l.write("INFO", format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.write("DEBUG", format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

// Config represents common configuration for CLI tools
type Config struct {
	Verbose        bool   `json:"verbose"`
	Debug          bool   `json:"debug"`
	Emit           string `json:"emit"`
	StepLimit      int    `json:"step_limit"`
	ServeAddr      string `json:"serve_addr"`
	TLSCert        string `json:"tls_cert"`
	TLSKey         string `json:"tls_key"`
	MaxConcurrency int    `json:"max_concurrency"`

	// Diagnostic policy for lower, verify and watch.
	WarningsAsErrors bool     `json:"warnings_as_errors"`
	IgnoreCodes      []string `json:"ignore_codes,omitempty"`
	MaxErrors        int      `json:"max_errors"`
}

// EnvMaxConcurrency overrides Config.MaxConcurrency when set to a positive
// integer.
const EnvMaxConcurrency = "STACKIR_MAX_CONCURRENCY"

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Emit:           "text",
		StepLimit:      1_000_000,
		ServeAddr:      "127.0.0.1:8443",
		MaxConcurrency: runtime.NumCPU(),
	}
}

// LoadConfig loads configuration from file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if v := os.Getenv(EnvMaxConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxConcurrency = n
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Emit {
	case "text", "json":
	default:
		return fmt.Errorf("invalid emit format %q (want text or json)", c.Emit)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors must not be negative")
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 1
	}
	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CommandInfo represents information about a CLI command
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
	Examples    []string
}

// PrintUsage prints a standardized usage message
func PrintUsage(w io.Writer, tool string, commands []CommandInfo) {
	fmt.Fprintf(w, "%s - stack IR lowering tools\n\n", tool)
	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "    %s [GLOBAL OPTIONS] <command> [OPTIONS]\n\n", tool)

	if len(commands) > 0 {
		fmt.Fprintf(w, "COMMANDS:\n")
		for _, cmd := range commands {
			fmt.Fprintf(w, "    %-10s %s\n", cmd.Name, cmd.Description)
		}
		fmt.Fprintf(w, "\n")

		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, cmd := range commands {
			for _, ex := range cmd.Examples {
				fmt.Fprintf(w, "    %s\n", ex)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "GLOBAL OPTIONS:\n")
	fmt.Fprintf(w, "    -config FILE   Load JSON configuration\n")
	fmt.Fprintf(w, "    -v             Verbose logging\n")
	fmt.Fprintf(w, "    -debug         Debug logging\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Use '%s <command> -h' for more information about a command.\n", tool)
}

// ErrUsage marks errors caused by wrong command line arguments.
var ErrUsage = errors.New("usage")

// ValidateArgs checks the number of positional arguments. maxArgs < 0 means
// no upper bound. The error wraps ErrUsage.
func ValidateArgs(args []string, minArgs, maxArgs int) error {
	switch {
	case len(args) < minArgs:
		return fmt.Errorf("%w: insufficient arguments (want at least %d, got %d)", ErrUsage, minArgs, len(args))
	case maxArgs >= 0 && len(args) > maxArgs:
		return fmt.Errorf("%w: too many arguments (want at most %d, got %d)", ErrUsage, maxArgs, len(args))
	}
	return nil
}
