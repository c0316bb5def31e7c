package systemd

import (
	"bytes"
	_ "embed"
	"fmt"
	"path"
	"text/template"
)

// SystemDir is where unit files are installed on the target.
const SystemDir = "/etc/systemd/system"

//go:embed templates/schedule-bot.service
var unitTemplate string

// UnitData carries the values substituted into the unit template.
type UnitData struct {
	// ServiceName is the systemd unit name, without the .service suffix.
	ServiceName string
	// AppDir is the application directory on the target.
	AppDir string
	// User is the account the service runs as.
	User string
}

// RenderUnit produces unit file contents from the embedded template.
func RenderUnit(data UnitData) ([]byte, error) {
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render unit template: %w", err)
	}

	return buf.Bytes(), nil
}

// UnitFileName returns the file name of a unit, e.g. "bot2.service".
func UnitFileName(serviceName string) string {
	return serviceName + ".service"
}

// UnitPath returns the installed path of a unit inside the given system
// directory, e.g. "/etc/systemd/system/bot2.service".
func UnitPath(systemDir, serviceName string) string {
	return path.Join(systemDir, UnitFileName(serviceName))
}

// EnvFilePath returns the secrets file path required by the unit,
// e.g. "/etc/bot2.env".
func EnvFilePath(serviceName string) string {
	return "/etc/" + serviceName + ".env"
}
