// Package systemd renders the service unit template and knows the layout of
// unit files and secrets files on the target.
//
// The canonical unit file is embedded at build time, so the uploader can fall
// back to it when the working tree carries no deploy/<service>.service file.
package systemd
