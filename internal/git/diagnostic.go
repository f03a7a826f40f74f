package git

import (
	"strings"
	"unicode/utf8"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// NoticeLimit is the number of characters of diagnostic text shown in a notice.
const NoticeLimit = 400

// IsNothingToCommit reports whether a failed commit only meant the index had
// nothing new in it. Such a failure is benign and the cycle goes on to push.
func IsNothingToCommit(text string) bool {
	return strings.Contains(strings.ToLower(text), "nothing to commit")
}

// Diagnostic returns the most useful text describing err: stderr, else
// stdout, else the underlying error message, else err's string form.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}

	var gitErr *autopushErrors.GitError
	if autopushErrors.As(err, &gitErr) {
		if s := strings.TrimSpace(gitErr.Stderr); s != "" {
			return s
		}
		if s := strings.TrimSpace(gitErr.Stdout); s != "" {
			return s
		}
		if gitErr.Err != nil {
			if s := strings.TrimSpace(gitErr.Err.Error()); s != "" {
				return s
			}
		}
	}

	return strings.TrimSpace(err.Error())
}

// combinedDiagnostic joins every text source of err. The benign-commit check
// runs over this so it does not depend on which stream git picked.
func combinedDiagnostic(err error) string {
	if err == nil {
		return ""
	}

	var gitErr *autopushErrors.GitError
	if !autopushErrors.As(err, &gitErr) {
		return err.Error()
	}

	parts := []string{gitErr.Stderr, gitErr.Stdout}
	if gitErr.Err != nil {
		parts = append(parts, gitErr.Err.Error())
	}
	return strings.Join(parts, "\n")
}

// Truncate trims s and keeps at most n characters.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
