package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/report"
	"github.com/KaramelBytes/tabsight-cli/internal/utils"
)

const (
	projectFileName = utils.ProjectFile
	reportsDirName  = "reports"
)

// Project groups dataset profiles persisted on disk.
type Project struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Datasets == nil {
		p.Datasets = make(map[string]*Dataset)
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}

// AddDataset stores the Markdown and JSON renderings of s under reports/ and
// records the dataset. The caller saves the project afterwards.
func (p *Project) AddDataset(source, description string, s *profile.Summary) (*Dataset, error) {
	if p.rootDir == "" {
		return nil, errors.New("project root directory not set")
	}
	dir := filepath.Join(p.rootDir, reportsDirName)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure reports dir: %w", err)
	}
	id := uuid.NewString()
	d := &Dataset{
		ID:             id,
		Source:         source,
		Name:           s.Name,
		Description:    description,
		Rows:           s.Rows,
		Cols:           s.Cols,
		HasNumericData: s.HasNumericData,
		ReportFile:     filepath.Join(reportsDirName, id+".md"),
		SummaryFile:    filepath.Join(reportsDirName, id+".json"),
		AddedAt:        time.Now(),
	}
	if d.Name == "" {
		d.Name = filepath.Base(source)
	}
	if err := utils.SafeWriteFile(filepath.Join(p.rootDir, d.ReportFile), []byte(report.Markdown(s))); err != nil {
		return nil, err
	}
	js, err := report.JSON(s)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(filepath.Join(p.rootDir, d.SummaryFile), js); err != nil {
		return nil, err
	}
	if p.Datasets == nil {
		p.Datasets = make(map[string]*Dataset)
	}
	p.Datasets[id] = d
	p.UpdatedAt = time.Now()
	return d, nil
}

// RemoveDataset forgets a dataset and deletes its report files.
func (p *Project) RemoveDataset(id string) error {
	d, ok := p.Datasets[id]
	if !ok {
		return fmt.Errorf("dataset %s not found in project %s", id, p.Name)
	}
	for _, f := range []string{d.ReportFile, d.SummaryFile} {
		if err := os.Remove(filepath.Join(p.rootDir, f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	delete(p.Datasets, id)
	p.UpdatedAt = time.Now()
	return nil
}

// SortedDatasets returns datasets oldest first, ties by name.
func (p *Project) SortedDatasets() []*Dataset {
	out := make([]*Dataset, 0, len(p.Datasets))
	for _, d := range p.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

// Bundle concatenates every dataset report into one Markdown document.
func (p *Project) Bundle() (string, error) {
	if p == nil {
		return "", errors.New("project is nil")
	}
	if len(p.Datasets) == 0 {
		return "", errors.New("no datasets added to project")
	}
	var sb strings.Builder
	sb.WriteString("[PROJECT]\n")
	sb.WriteString(p.Name)
	if p.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Description)
	}
	sb.WriteString("\n\n[DATASETS]\n")
	for _, d := range p.SortedDatasets() {
		b, err := os.ReadFile(filepath.Join(p.rootDir, d.ReportFile))
		if err != nil {
			return "", fmt.Errorf("read report for %s: %w", d.Name, err)
		}
		sb.WriteString("--- Dataset: ")
		sb.WriteString(d.Name)
		if d.Description != "" {
			sb.WriteString(" (")
			sb.WriteString(d.Description)
			sb.WriteString(")")
		}
		sb.WriteString(" ---\n")
		sb.Write(b)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
