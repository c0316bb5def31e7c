// Package common holds helpers shared by both deployment flows.
//
// It provides the injectable command Runner the installer shells out through
// and utilities to detect the current system actor (hostname/username) for
// defaults and logging.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
