package service

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed units/docker.service units/docker.socket
var unitFS embed.FS

// UnitNames lists the unit files installed into the systemd directory.
var UnitNames = []string{"docker.service", "docker.socket"}

// unitData is the template input for unit files.
type unitData struct {
	BinDir string
}

// RenderUnit returns the contents of the named unit with ExecStart pointing
// into binDir.
func RenderUnit(name, binDir string) ([]byte, error) {
	raw, err := unitFS.ReadFile("units/" + name)
	if err != nil {
		return nil, fmt.Errorf("unknown unit %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse unit %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, unitData{BinDir: binDir}); err != nil {
		return nil, fmt.Errorf("render unit %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// StageUnits writes every unit into dir and returns the written paths in
// UnitNames order.
func StageUnits(dir, binDir string) ([]string, error) {
	paths := make([]string, 0, len(UnitNames))
	for _, name := range UnitNames {
		content, err := RenderUnit(name, binDir)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, content, 0644); err != nil {
			return nil, fmt.Errorf("stage unit %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
