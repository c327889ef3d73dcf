package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// safeCommands is the allowlist of shell commands the assistant will run.
// Anything outside it is refused; this is a convenience guard for the
// interactive `!cmd` escape, not a sandbox.
var safeCommands = map[string]struct{}{
	"ls": {}, "pwd": {}, "echo": {}, "cat": {}, "grep": {}, "find": {},
	"head": {}, "tail": {}, "wc": {}, "sort": {}, "uniq": {}, "diff": {},
	"mkdir": {}, "rmdir": {}, "cp": {}, "mv": {}, "rm": {}, "touch": {},
	"chmod": {}, "chown": {}, "date": {}, "cal": {}, "bc": {}, "man": {},
	"which": {}, "whoami": {}, "id": {}, "ps": {}, "top": {}, "df": {},
	"du": {}, "free": {}, "ping": {}, "curl": {}, "wget": {}, "git": {},
	"tar": {}, "zip": {}, "unzip": {}, "gzip": {},
}

// IsSafeCommand reports whether the command's program is on the allowlist.
func IsSafeCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	_, ok := safeCommands[fields[0]]
	return ok
}

// ExecuteShell runs an allowlisted shell command and returns its stdout.
// `cd` is handled in-process so it affects subsequent commands. Output on
// stderr is treated as failure, mirroring how the assistant reports
// command errors back into the conversation.
func ExecuteShell(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", nil
	}

	if !IsSafeCommand(command) && !strings.HasPrefix(command, "cd ") {
		return "", fmt.Errorf("command %q is not in the allowed list; only basic shell commands can be executed", strings.Fields(command)[0])
	}

	if strings.HasPrefix(command, "cd ") {
		path := strings.TrimSpace(command[3:])
		if err := os.Chdir(path); err != nil {
			return "", fmt.Errorf("change directory: %w", err)
		}
		wd, _ := os.Getwd()
		return "Changed directory to " + wd, nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", errors.New(msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
