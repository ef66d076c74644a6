package cli

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/vehicle"
	"gopkg.in/yaml.v3"
)

// Manifest describes a form submission in YAML:
//
//	vehicle: 7b0c0a8e-1f2a-4c55-9f0e-2b9d3c1a7e11
//	details:
//	  odometer_km: 52000
//	files:
//	  rc: [scans/rc-front.pdf, scans/rc-back.pdf]
//	delete:
//	  insurance: [7b0c.../insurance/1700000000000_0_old.pdf]
//
// Relative file paths resolve against the manifest's directory.
type Manifest struct {
	Vehicle string              `yaml:"vehicle"`
	Details *ManifestDetails    `yaml:"details"`
	Files   map[string][]string `yaml:"files"`
	Delete  map[string][]string `yaml:"delete"`

	baseDir string
}

// ManifestDetails overrides the stored details; omitted fields are kept
type ManifestDetails struct {
	RegistrationNumber *string  `yaml:"registration_number"`
	Make               *string  `yaml:"make"`
	Model              *string  `yaml:"model"`
	Year               *int     `yaml:"year"`
	FuelType           *string  `yaml:"fuel_type"`
	OdometerKm         *int     `yaml:"odometer_km"`
	Status             *string  `yaml:"status"`
	Tags               []string `yaml:"tags"`
}

// ParseManifest decodes a manifest from YAML
func ParseManifest(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("manifest: payload is empty")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	return &m, nil
}

// LoadManifest reads a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.baseDir = filepath.Dir(path)
	return m, nil
}

// AddPairs merges category=value flags into target
func AddPairs(target map[string][]string, pairs []string) (map[string][]string, error) {
	if target == nil {
		target = map[string][]string{}
	}
	for _, pair := range pairs {
		category, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(category) == "" || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("invalid value %q: expected category=value", pair)
		}
		category = strings.TrimSpace(category)
		target[category] = append(target[category], strings.TrimSpace(value))
	}
	return target, nil
}

// Apply stages the manifest's files and deletions on form
func (m *Manifest) Apply(form *vehicle.Form) error {
	if m.Details != nil {
		details := form.Details()
		m.Details.apply(&details)
		form.SetDetails(details)
	}

	for name, paths := range m.Files {
		category, err := documents.ParseCategory(name)
		if err != nil {
			return err
		}
		files := make([]documents.File, 0, len(paths))
		for _, p := range paths {
			f, err := localFile(m.resolve(p))
			if err != nil {
				return err
			}
			files = append(files, f)
		}
		if err := form.Stage(category, files...); err != nil {
			return err
		}
	}

	for name, paths := range m.Delete {
		category, err := documents.ParseCategory(name)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if err := form.MarkForDeletion(category, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) || m.baseDir == "" {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

func (d *ManifestDetails) apply(details *vehicle.Details) {
	if d.RegistrationNumber != nil {
		details.RegistrationNumber = *d.RegistrationNumber
	}
	if d.Make != nil {
		details.Make = *d.Make
	}
	if d.Model != nil {
		details.Model = *d.Model
	}
	if d.Year != nil {
		details.Year = *d.Year
	}
	if d.FuelType != nil {
		details.FuelType = vehicle.FuelType(*d.FuelType)
	}
	if d.OdometerKm != nil {
		details.OdometerKm = *d.OdometerKm
	}
	if d.Status != nil {
		details.Status = vehicle.VehicleStatus(*d.Status)
	}
	if d.Tags != nil {
		details.Tags = append([]string(nil), d.Tags...)
	}
}

// localFile describes a file on disk; it is opened only when uploaded
func localFile(path string) (documents.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return documents.File{}, err
	}
	if info.IsDir() {
		return documents.File{}, fmt.Errorf("%s is a directory", path)
	}

	contentType, err := detectContentType(path)
	if err != nil {
		return documents.File{}, err
	}

	return documents.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func detectContentType(path string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
