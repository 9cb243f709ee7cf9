// Package security confines file and command operations to configured areas
// and records every decision in an append-only event log.
package security

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/takumiyoshikawa/agentic/internal/config"
)

// EventLogName is the file, under the logs directory, that receives events.
const EventLogName = "security_events.jsonl"

type EventType string

const (
	EventAllowed   EventType = "allowed"
	EventWarning   EventType = "warning"
	EventViolation EventType = "violation"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Command   string    `json:"command,omitempty"`
}

// Violation is returned when an operation is refused.
type Violation struct {
	Message string
}

func (v *Violation) Error() string {
	return "security violation: " + v.Message
}

func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

var (
	dangerousCommands = []string{
		"rm -rf /", "rm -rf /*", "rm -rf ~", "rm -rf ~/",
		"mkfs", "dd if=/dev/zero", ":(){ :|:& };:",
		"> /dev/sda", "mv ~ /dev/null",
	}
	systemCommands = []string{
		"sudo", "su", "apt", "apt-get", "yum", "dnf",
		"brew", "npm -g", "pip install --user", "pip install -g",
	}
	systemPathRefs    = []string{"/usr/", "/etc/", "/var/", "/bin/", "/sbin/"}
	dangerousPatterns = []struct {
		label string
		re    *regexp.Regexp
	}{
		{"os.system(", regexp.MustCompile(`os\.system\(`)},
		{"subprocess.call(", regexp.MustCompile(`subprocess\.call\(`)},
		{"subprocess.run(", regexp.MustCompile(`subprocess\.run\(`)},
		{"eval(", regexp.MustCompile(`\beval\(`)},
		{"exec(", regexp.MustCompile(`\bexec\(`)},
		{"rm -rf", regexp.MustCompile(`rm -rf`)},
		{"sudo", regexp.MustCompile(`\bsudo\b`)},
		{"su", regexp.MustCompile(`\bsu\b`)},
	}
)

// Checker validates paths and commands against a set of allowed areas.
type Checker struct {
	Allowed  []string
	EventLog string
	Logger   *log.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New builds a Checker from cfg. Allowed areas are made absolute; the event
// log lives in the configured logs directory.
func New(cfg *config.Config, logger *log.Logger) *Checker {
	areas := make([]string, 0, len(cfg.Security.AllowedAreas))
	for _, a := range cfg.Security.AllowedAreas {
		if abs, err := filepath.Abs(config.ExpandPath(a)); err == nil {
			areas = append(areas, abs)
		}
	}
	return &Checker{
		Allowed:  areas,
		EventLog: filepath.Join(cfg.Paths.Logs, EventLogName),
		Logger:   logger,
		now:      time.Now,
	}
}

// PathAllowed reports whether path is one of the allowed areas or inside one.
func (c *Checker) PathAllowed(path string) bool {
	abs, err := filepath.Abs(config.ExpandPath(path))
	if err != nil {
		return false
	}
	for _, area := range c.Allowed {
		if abs == area || strings.HasPrefix(abs, area+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ValidatePath returns a *Violation when path is outside every allowed area.
func (c *Checker) ValidatePath(path, operation string) error {
	if !c.PathAllowed(path) {
		msg := fmt.Sprintf("%s operation on path %q is not allowed", operation, path)
		c.record(Event{Type: EventViolation, Message: msg, Path: path, Operation: operation})
		return &Violation{Message: msg}
	}
	c.record(Event{Type: EventAllowed, Message: fmt.Sprintf("%s operation on path %q is allowed", operation, path), Path: path, Operation: operation})
	return nil
}

// ValidateCommand refuses known destructive commands. Commands that may
// modify the system are allowed but returned as warnings.
func (c *Checker) ValidateCommand(command string) ([]string, error) {
	for _, d := range dangerousCommands {
		if strings.Contains(command, d) {
			msg := fmt.Sprintf("potentially dangerous command %q", command)
			c.record(Event{Type: EventViolation, Message: msg, Operation: "execute", Command: command})
			return nil, &Violation{Message: msg}
		}
	}

	var warnings []string
	padded := " " + command + " "
	for _, s := range systemCommands {
		if strings.HasPrefix(command, s+" ") || command == s || strings.Contains(padded, " "+s+" ") {
			msg := fmt.Sprintf("command %q might modify system files", command)
			warnings = append(warnings, msg)
			c.record(Event{Type: EventWarning, Message: msg, Operation: "execute", Command: command})
			break
		}
	}

	c.record(Event{Type: EventAllowed, Message: fmt.Sprintf("command %q is allowed", command), Operation: "execute", Command: command})
	return warnings, nil
}

// ScanFile reports lines and patterns in path that look risky. The path
// itself must be allowed.
func (c *Checker) ScanFile(path string) ([]string, error) {
	if err := c.ValidatePath(path, "read"); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var findings []string
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if c.mentionsAllowed(line) {
			continue
		}
		for _, ref := range systemPathRefs {
			if strings.Contains(line, ref) {
				findings = append(findings, fmt.Sprintf("line %d: reference to system path: %s", n, line))
				break
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	for _, p := range dangerousPatterns {
		if p.re.Match(data) {
			findings = append(findings, fmt.Sprintf("potentially dangerous pattern %q", p.label))
		}
	}
	return findings, nil
}

func (c *Checker) mentionsAllowed(line string) bool {
	for _, area := range c.Allowed {
		if strings.Contains(line, area) {
			return true
		}
	}
	return false
}

// HashFile returns the hex SHA-256 of an allowed file.
func (c *Checker) HashFile(path string) (string, error) {
	if err := c.ValidatePath(path, "read"); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyIntegrity compares the file's SHA-256 with expected, ignoring case.
func (c *Checker) VerifyIntegrity(path, expected string) (bool, error) {
	actual, err := c.HashFile(path)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		c.record(Event{Type: EventWarning, Message: "file integrity check failed for " + path, Path: path, Operation: "integrity_check"})
		return false, nil
	}
	c.record(Event{Type: EventAllowed, Message: "file integrity verified for " + path, Path: path, Operation: "integrity_check"})
	return true, nil
}

// record appends ev to the event log. Failures to write are logged, never
// returned, so a read-only logs directory does not block the operation.
func (c *Checker) record(ev Event) {
	if c.now == nil {
		c.now = time.Now
	}
	ev.Timestamp = c.now().UTC()

	if c.Logger != nil {
		switch ev.Type {
		case EventViolation:
			c.Logger.Warn(ev.Message, "type", ev.Type)
		default:
			c.Logger.Info(ev.Message, "type", ev.Type)
		}
	}
	if c.EventLog == "" {
		return
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.EventLog), 0o750); err != nil {
		c.logWriteError(err)
		return
	}
	f, err := os.OpenFile(c.EventLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		c.logWriteError(err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		c.logWriteError(err)
	}
}

func (c *Checker) logWriteError(err error) {
	if c.Logger != nil {
		c.Logger.Error("failed to write security event", "file", c.EventLog, "err", err)
	}
}

// ReadEvents returns every event in the log, oldest first.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	dec := json.NewDecoder(f)
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decode %s: %w", path, err)
		}
		events = append(events, ev)
	}
}
