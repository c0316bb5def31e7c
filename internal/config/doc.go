// Package config defines deployment settings used by the deploy binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the SSH target, remote application directory and the
// systemd service name; a settings file is optional because both CLIs can be
// driven entirely by flags.
package config
