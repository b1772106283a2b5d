// Package syncconfig resolves the CLI-facing configuration for a single
// sync root: the remote URL, credentials, and the per-sync-root state
// directory under "~/.subsyncit" that holds the Index database, status
// file, error sink, and a human-readable pointer back to the watched
// directory.
package syncconfig

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/subsyncit/subsyncit/internal/utils"
)

// anonymousPassword is the literal value that requests an unauthenticated
// connection instead of a password prompt.
const anonymousPassword = "*NONE"

const settingsDirName = ".subsyncit"

// Config is the fully resolved, validated configuration for one run.
type Config struct {
	RemoteURL     string // always ends in "/"
	LocalRoot     string // absolute, always ends in the platform separator
	User          string
	Password      string // "" means anonymous
	VerifySSL     bool
	ScanEnabled   bool
	WatchEnabled  bool
	SleepInterval int // seconds
	StateDir      string
}

// Options carries the raw CLI input before resolution/validation.
type Options struct {
	RemoteURL     string
	LocalRoot     string
	User          string
	Password      string // "" triggers an interactive prompt; "*NONE" means anonymous
	VerifySSL     bool
	ScanEnabled   bool
	WatchEnabled  bool
	SleepInterval int
}

// Resolve turns Options into a validated Config, prompting for a password
// on the terminal if none was given on the command line.
func Resolve(opts Options) (*Config, error) {
	if opts.RemoteURL == "" || opts.LocalRoot == "" || opts.User == "" {
		return nil, fmt.Errorf("syncconfig: remote_url, local_root and user are all required")
	}

	password, err := resolvePassword(opts.User, opts.Password)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(opts.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("syncconfig: resolve local root: %w", err)
	}
	if !strings.HasSuffix(absRoot, string(os.PathSeparator)) {
		absRoot += string(os.PathSeparator)
	}

	remoteURL := opts.RemoteURL
	if !strings.HasSuffix(remoteURL, "/") {
		remoteURL += "/"
	}

	stateDir, err := stateDirFor(absRoot)
	if err != nil {
		return nil, err
	}

	sleep := opts.SleepInterval
	if sleep <= 0 {
		sleep = 30
	}

	return &Config{
		RemoteURL:     remoteURL,
		LocalRoot:     absRoot,
		User:          opts.User,
		Password:      password,
		VerifySSL:     opts.VerifySSL,
		ScanEnabled:   opts.ScanEnabled,
		WatchEnabled:  opts.WatchEnabled,
		SleepInterval: sleep,
		StateDir:      stateDir,
	}, nil
}

func resolvePassword(username, raw string) (string, error) {
	switch raw {
	case anonymousPassword:
		return "", nil
	case "":
		fmt.Fprintf(os.Stderr, "Subversion password for %s: ", username)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("syncconfig: read password: %w", err)
		}
		return string(pw), nil
	default:
		return raw, nil
	}
}

// resolveHomeDir honors SUDO_USER so `sudo subsyncit ...` still resolves
// the invoking user's own home directory, not root's.
func resolveHomeDir() (string, error) {
	if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return profile, nil
		}
		return os.UserHomeDir()
	}

	name := os.Getenv("SUDO_USER")
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		return os.UserHomeDir()
	}
	u, err := user.Lookup(name)
	if err != nil {
		return os.UserHomeDir()
	}
	return u.HomeDir, nil
}

// encodeDirName mirrors the original client's directory-name encoding for
// an absolute path: it must produce a single valid path component on every
// platform, so "/", ":" and "\" are percent-escaped rather than used as
// nested directories.
func encodeDirName(absPath string) string {
	r := strings.NewReplacer("/", "%47", ":", "%58", "\\", "%92")
	return r.Replace(absPath)
}

func stateDirFor(absRoot string) (string, error) {
	home, err := resolveHomeDir()
	if err != nil {
		return "", fmt.Errorf("syncconfig: resolve home directory: %w", err)
	}

	settingsDir := filepath.Join(home, settingsDirName)
	if err := utils.EnsureDir(settingsDir); err != nil {
		return "", fmt.Errorf("syncconfig: create settings dir: %w", err)
	}
	if err := utils.MakeHidden(settingsDir); err != nil {
		return "", fmt.Errorf("syncconfig: hide settings dir: %w", err)
	}

	dbDir := filepath.Join(settingsDir, encodeDirName(absRoot))
	if err := utils.EnsureDir(dbDir); err != nil {
		return "", fmt.Errorf("syncconfig: create state dir: %w", err)
	}
	return dbDir, nil
}

// WriteInfoFile writes INFO.TXT, the state directory's human pointer back
// to the sync root it belongs to.
func (c *Config) WriteInfoFile() error {
	path := filepath.Join(c.StateDir, "INFO.TXT")
	content := c.LocalRoot + " is the Subsyncit path that this pertains to"
	return os.WriteFile(path, []byte(content), 0o644)
}

// DBPath is the Index Table's SQLite file.
func (c *Config) DBPath() string { return filepath.Join(c.StateDir, "subsyncit.db") }

// StopSentinelPath is the path watched for cooperative shutdown.
func (c *Config) StopSentinelPath() string { return filepath.Join(c.LocalRoot, "subsyncit.stop") }

// RemoveStaleStopSentinel deletes a leftover stop sentinel from a prior
// run, so a fresh start isn't immediately told to shut down again.
func (c *Config) RemoveStaleStopSentinel() error {
	err := os.Remove(c.StopSentinelPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
