package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is attached to a terminal.
// CI environments (CODEBUILD_BUILD_ID set) are never treated as a TTY,
// so spinners and color degrade to plain line output there.
func IsTTY() bool {
	if os.Getenv("CODEBUILD_BUILD_ID") != "" || os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
