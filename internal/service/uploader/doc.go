// Package uploader implements the operator-side flow that pushes the bot's
// working tree to the deployment target.
//
// The flow is strictly sequential: validate the fixed manifest locally,
// connect, ensure the remote directory tree, copy the manifest files, then
// the unit file, then a checksum description of what was pushed. It is not
// atomic; a transfer failure leaves the remote directory partially written
// and no rollback is attempted.
package uploader
