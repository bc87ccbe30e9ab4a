package installer

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	// ErrNoCommand is returned for an empty command line.
	ErrNoCommand = errors.New("empty command line")
	// ErrUnterminatedQuote is returned when a quote is never closed.
	ErrUnterminatedQuote = errors.New("unterminated quote in command line")
)

// SplitCommandLine splits a stored command line into a program path and its
// arguments.
//
// A line starting with a quote takes everything up to the matching closing
// quote as the path. Otherwise the path is the shortest prefix ending at a
// space for which isExecutable reports true, so unquoted paths containing
// spaces still resolve; when no prefix qualifies the whole line is the path.
// The remainder is split on whitespace with quoted runs kept together; a
// token that is quoted as a whole loses its quotes.
func SplitCommandLine(cmdline string, isExecutable func(string) bool) (string, []string, error) {
	cmdline = strings.TrimSpace(cmdline)
	if cmdline == "" {
		return "", nil, ErrNoCommand
	}

	if q := cmdline[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(cmdline[1:], q)
		if end < 0 {
			return "", nil, ErrUnterminatedQuote
		}
		path := cmdline[1 : end+1]
		args, err := splitArgs(cmdline[end+2:])
		return path, args, err
	}

	for i := 0; i < len(cmdline); i++ {
		if cmdline[i] != ' ' {
			continue
		}
		if candidate := cmdline[:i]; isExecutable(candidate) {
			args, err := splitArgs(cmdline[i+1:])
			return candidate, args, err
		}
	}
	return cmdline, nil, nil
}

func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inToken := false
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			cur.WriteByte(c)
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			if inToken {
				args = append(args, unquote(cur.String()))
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		args = append(args, unquote(cur.String()))
	}
	return args, nil
}

// unquote strips the quotes from a token quoted as a whole, such as
// "C:\Program Files\App". Tokens like /LOG="C:\x y" keep their quotes.
func unquote(token string) string {
	if len(token) < 2 {
		return token
	}
	q := token[0]
	if (q != '"' && q != '\'') || token[len(token)-1] != q {
		return token
	}
	inner := token[1 : len(token)-1]
	if strings.IndexByte(inner, q) >= 0 {
		return token
	}
	return inner
}

// IsExecutable reports whether path names an executable regular file. Bare
// names without a directory are also looked up on PATH, which resolves
// stored commands like "MsiExec.exe /X{...}".
func IsExecutable(path string) bool {
	if path == "" {
		return false
	}
	if info, err := os.Stat(path); err == nil {
		if !info.Mode().IsRegular() {
			return false
		}
		return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
	}
	if strings.ContainsAny(path, `\/`) {
		return false
	}
	_, err := exec.LookPath(path)
	return err == nil
}
