// Package remote implements the SSH/SFTP transport used to push files to the
// deployment target.
//
// The Client dials with public-key authentication, verifies host keys against
// known_hosts, and exposes directory creation and file upload over the SFTP
// subsystem. Consumers depend on a narrow interface so tests can substitute
// fakes and assert on call sequences instead of touching the network.
package remote
