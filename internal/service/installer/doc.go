// Package installer implements the target-side flow that turns an uploaded
// application directory into a running, boot-enabled systemd service.
//
// The sequence is linear and fail-fast: system prerequisites, virtualenv,
// dependencies, secrets check, unit install, service start. No step is
// retried and no cleanup is attempted; the flow is meant for one-shot,
// human-supervised execution. A marker file plus a process scan refuse to
// start a second installer while one is in progress.
package installer
