// Package envbuild writes default environment definitions.
package envbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/danieljhkim/workbench/internal/fsops"
)

// DefinitionFile is the name of the environment definition written by
// DockerfileBuilder.
const DefinitionFile = "Dockerfile"

// ErrUnsupportedPlatform indicates no base image variant exists for the
// requested platform.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform identifies the host an environment is built for.
type Platform struct {
	OS   string
	Arch string
}

// HostPlatform returns the platform of the running process.
func HostPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Builder produces an environment definition in a directory.
type Builder interface {
	// Build writes a default environment definition into dir for the given
	// platform. The directory is created if needed.
	Build(ctx context.Context, dir string, platform Platform) error
}

var dockerfileTemplate = template.Must(template.New("Dockerfile").Parse(`# Generated by workbench for {{ .Platform }}.
FROM {{ .Image }}:{{ .Variant }}-py3

WORKDIR /home/workbench
`))

// DockerfileBuilder writes a Dockerfile naming a base image and selecting a
// CPU or GPU variant for the platform.
type DockerfileBuilder struct {
	fs        fsops.FS
	baseImage string
	gpu       bool
}

// NewDockerfileBuilder creates a new DockerfileBuilder. GPU variants are
// only selected when gpu is set and the platform supports them.
func NewDockerfileBuilder(fs fsops.FS, baseImage string, gpu bool) *DockerfileBuilder {
	return &DockerfileBuilder{fs: fs, baseImage: baseImage, gpu: gpu}
}

// Variant returns the image variant chosen for platform.
func (b *DockerfileBuilder) Variant(platform Platform) (string, error) {
	switch platform.Arch {
	case "amd64":
		if b.gpu && platform.OS == "linux" {
			return "gpu", nil
		}
		return "cpu", nil
	case "arm64":
		return "cpu", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
}

// Render returns the definition content for platform.
func (b *DockerfileBuilder) Render(platform Platform) ([]byte, error) {
	variant, err := b.Variant(platform)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = dockerfileTemplate.Execute(&buf, struct {
		Platform Platform
		Image    string
		Variant  string
	}{platform, b.baseImage, variant})
	if err != nil {
		return nil, fmt.Errorf("failed to render definition: %w", err)
	}
	return buf.Bytes(), nil
}

// Build writes the Dockerfile into dir.
func (b *DockerfileBuilder) Build(ctx context.Context, dir string, platform Platform) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := b.Render(platform)
	if err != nil {
		return err
	}

	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create environment directory: %w", err)
	}
	path := filepath.Join(dir, DefinitionFile)
	if err := b.fs.AtomicWrite(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write definition: %w", err)
	}

	log.Debug().Str("path", path).Str("platform", platform.String()).Msg("environment definition written")
	return nil
}
