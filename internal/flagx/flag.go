// Package flagx lets several flag sets share one command line. Each set
// parses only the flags it defines and skips the rest, so the config file
// flag and the component flags can be read independently.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// Parse parses the flags of fs that appear in args and ignores every other
// argument.
func Parse(fs *flag.FlagSet, args []string) error {
	return fs.Parse(Known(fs, args))
}

// Known returns the arguments of args that belong to flags defined in fs,
// values included. Both "-name value" and "-name=value" forms are kept, with
// one or two leading dashes. A non-boolean flag takes the next argument as
// its value the way the flag package does. Nothing after "--" is kept.
func Known(fs *flag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, inline, ok := flagName(arg)
		if !ok {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		out = append(out, arg)
		if inline || isBool(f) || i+1 >= len(args) {
			continue
		}
		i++
		out = append(out, args[i])
	}
	return out
}

// ConfigPath returns the value of -c or -config in args, or of the
// environment variable env when neither is given.
func ConfigPath(args []string, env string) string {
	var path string
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to the JSON config file")
	fs.StringVar(&path, "c", "", "path to the JSON config file")
	_ = Parse(fs, args)

	if path == "" {
		path = os.Getenv(env)
	}
	return path
}

func flagName(arg string) (name string, inline bool, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = arg[1:]
	if name[0] == '-' {
		name = name[1:]
	}
	if name == "" || name[0] == '-' || name[0] == '=' {
		return "", false, false
	}
	name, _, inline = strings.Cut(name, "=")
	return name, inline, true
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
