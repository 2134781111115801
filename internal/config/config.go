// Package config parses the command-line surface spec.md §6 and §4.9
// define and builds the immutable Config the rest of the proxy runs
// from.
package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jeremybobbin/shttproxy/internal/routetable"
)

// Version is the value printed by -v/--version.
const Version = "shttproxy/1.0"

// Config is the fully-parsed, read-only startup configuration.
type Config struct {
	ShowVersion bool

	// Network is "tcp" or "unix", chosen by whether -U was given.
	Network string
	Host    string
	Port    string
	UnixPath string

	ChDir string

	Table *routetable.Table
}

// Parse parses args (normally os.Args[1:]) into a Config. A malformed
// flag, a malformed routing entry, or specifying both -U and -h/-p is
// a fatal startup error (spec.md §7).
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("shttproxy", pflag.ContinueOnError)

	version := fs.BoolP("version", "v", false, "print version and exit")
	host := fs.StringP("host", "h", "", "bind address for the TCP listener")
	port := fs.StringP("port", "p", "", "bind port for the TCP listener")
	unixPath := fs.StringP("unix-socket", "U", "", "bind a UNIX-domain stream socket at path instead of TCP")
	chdir := fs.StringP("chdir", "d", "", "chdir into this directory before serving")
	// -l/-L are vestigial directory-listing flags from the source;
	// accepted so existing invocations don't fail, ignored by the
	// proxy path (spec.md §1, §6).
	fs.BoolP("listing", "l", false, "ignored (vestigial)")
	fs.BoolP("listing-reverse", "L", false, "ignored (vestigial)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		ShowVersion: *version,
		Host:        *host,
		Port:        *port,
		UnixPath:    *unixPath,
		ChDir:       *chdir,
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if cfg.UnixPath != "" {
		if cfg.Host != "" || cfg.Port != "" {
			return nil, fmt.Errorf("config: -U is mutually exclusive with -h/-p")
		}
		cfg.Network = "unix"
	} else {
		cfg.Network = "tcp"
	}

	table, err := routetable.Parse(fs.Args())
	if err != nil {
		return nil, err
	}
	cfg.Table = table

	return cfg, nil
}
