// Package descriptor emits the deployment descriptor consumed by
// Elastic Beanstalk: a single Dockerrun.aws.json naming the pushed
// image and its exposed port. The descriptor is the pipeline's sole
// output artifact and is written exactly once per run, only after both
// image pushes have succeeded.
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FormatVersion is the single-container Dockerrun format version.
const FormatVersion = "1"

// Port declares one exposed container port.
type Port struct {
	ContainerPort int `json:"ContainerPort"`
}

// Image names the image to deploy.
type Image struct {
	Name string `json:"Name"`

	// Update tells the platform to pull the image on every deploy.
	Update string `json:"Update"`
}

// Dockerrun is the deployment descriptor. Field names are a bit-exact
// platform contract; do not rename.
type Dockerrun struct {
	AWSEBDockerrunVersion string `json:"AWSEBDockerrunVersion"`
	Ports                 []Port `json:"Ports"`
	Image                 Image  `json:"Image"`
}

// New builds a descriptor for the given image reference and port.
func New(imageRef string, port int) Dockerrun {
	return Dockerrun{
		AWSEBDockerrunVersion: FormatVersion,
		Ports:                 []Port{{ContainerPort: port}},
		Image: Image{
			Name:   imageRef,
			Update: "true",
		},
	}
}

// Render returns the descriptor as compact JSON. Output is
// deterministic: the same descriptor always renders to the same bytes.
func (d Dockerrun) Render() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return data, nil
}

// Write renders the descriptor and writes it to path, creating parent
// directories as needed.
func (d Dockerrun) Write(path string) error {
	data, err := d.Render()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating descriptor directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}
	return nil
}
