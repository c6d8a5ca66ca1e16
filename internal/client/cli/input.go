package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/paykeeper/internal/records"
	"golang.org/x/term"
)

var ErrBadField = errors.New("expected name=value")

// prompter asks the user for input on the scanner the REPL reads commands
// from, so no line is buffered twice. When stdin is not a terminal,
// passwords are read as plain lines and the client can be scripted.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer

	isTerminal   func() bool
	readPassword func() ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := int(os.Stdin.Fd())
	return &prompter{
		in:           bufio.NewScanner(in),
		out:          out,
		isTerminal:   func() bool { return term.IsTerminal(fd) },
		readPassword: func() ([]byte, error) { return term.ReadPassword(fd) },
	}
}

// next returns the next input line without its line ending.
func (p *prompter) next() (string, error) {
	if p.in.Scan() {
		return p.in.Text(), nil
	}
	if err := p.in.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Line prints label and returns one trimmed line.
func (p *prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label+"\n> ")
	line, err := p.next()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a secret without echo. The caller wipes the result.
func (p *prompter) Password(label string) ([]byte, error) {
	fmt.Fprint(p.out, label+": ")
	if !p.isTerminal() {
		line, err := p.next()
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	return pw, err
}

// Fields reads "name=value" lines until an empty line or EOF. Values that
// decode as JSON keep their type (whole numbers become int64); anything else
// is a plain string.
func (p *prompter) Fields(label string) (records.Record, error) {
	fmt.Fprint(p.out, label+"\n(name=value per line, empty line to finish)\n")

	rec := records.Record{}
	for {
		line, err := p.next()
		if errors.Is(err, io.EOF) || (err == nil && line == "") {
			return rec, nil
		}
		if err != nil {
			return nil, err
		}
		name, value, ok := strings.Cut(line, "=")
		if name = strings.TrimSpace(name); !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadField, line)
		}
		rec[name] = parseValue(strings.TrimSpace(value))
	}
}

func parseValue(s string) any {
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return v
}
