package report

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsStyled reports whether output written to w should be styled.
//
// Returns false if:
//   - w is not a terminal (piped output, redirected to a file)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - CI is set (common CI/CD convention)
func IsStyled(w io.Writer) bool {
	return detectStyled(w, os.Getenv)
}

func detectStyled(w io.Writer, getenv func(string) string) bool {
	if getenv("NO_COLOR") != "" || getenv("CI") != "" {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
