package branchmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	sampleInfixConstant             = ".sample"
	jsonIndentConstant              = "  "
	yamlIndentConstant              = 2
	directoryPermissionsConstant    = 0o755
	filePermissionsConstant         = 0o644
	directoryCreateErrorTemplate    = "unable to create directory: %w"
	fileEncodeErrorTemplate         = "unable to encode file: %w"
	fileWriteErrorTemplate          = "unable to write file: %w"
	sampleProjectsErrorTemplate     = "unable to list projects for sample: %w"
	sampleBranchesErrorTemplate     = "unable to list branches of project %d for sample: %w"
	templateProjectNameConstant     = "example-project"
	templateSourceBranchConstant    = "main"
	templateTargetBranchConstant    = "release-1"
	templateProtectedBranchConstant = "main"
)

// SampleFileName returns the sample path for a mapping path, inserting ".sample"
// before the extension: gitlab-update-branch-config.json becomes
// gitlab-update-branch-config.sample.json.
func SampleFileName(path string) string {
	extension := filepath.Ext(path)
	return strings.TrimSuffix(path, extension) + sampleInfixConstant + extension
}

// WriteSample encodes payload next to mappingPath under its sample name and
// returns the written path.
func WriteSample(mappingPath string, payload any) (string, error) {
	samplePath := SampleFileName(mappingPath)
	if writeError := WriteFile(samplePath, payload); writeError != nil {
		return "", writeError
	}
	return samplePath, nil
}

// WriteFile encodes payload as indented JSON, or YAML for .yaml/.yml paths,
// creating missing parent directories.
func WriteFile(path string, payload any) error {
	if directoryError := os.MkdirAll(filepath.Dir(path), directoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(directoryCreateErrorTemplate, directoryError)
	}

	content, encodeError := encodeSample(path, payload)
	if encodeError != nil {
		return fmt.Errorf(fileEncodeErrorTemplate, encodeError)
	}

	if writeError := os.WriteFile(path, content, filePermissionsConstant); writeError != nil {
		return fmt.Errorf(fileWriteErrorTemplate, writeError)
	}
	return nil
}

func encodeSample(path string, payload any) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case yamlExtensionConstant, ymlExtensionConstant:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(payload); encodeError != nil {
			return nil, encodeError
		}
		if closeError := encoder.Close(); closeError != nil {
			return nil, closeError
		}
		return buffer.Bytes(), nil
	default:
		content, encodeError := json.MarshalIndent(payload, "", jsonIndentConstant)
		if encodeError != nil {
			return nil, encodeError
		}
		return append(content, '\n'), nil
	}
}

// StaticTemplate returns an illustrative branch mapping.
func StaticTemplate() []ProjectMapping {
	return []ProjectMapping{
		{
			ProjectID:   1,
			ProjectName: templateProjectNameConstant,
			Branches: []BranchMappingEntry{
				{OldBranch: templateSourceBranchConstant, NewBranch: templateTargetBranchConstant},
			},
		},
	}
}

// StaticProtectedTemplate returns an illustrative protected branch mapping.
func StaticProtectedTemplate() []ProtectedBranchMapping {
	return []ProtectedBranchMapping{
		{ProjectID: 1, ProjectName: templateProjectNameConstant, Branches: []string{templateProtectedBranchConstant}},
	}
}

// ProjectLister lists projects and their branches.
type ProjectLister interface {
	ListProjects(executionContext context.Context) ([]gitlabapi.Project, error)
	ListBranches(executionContext context.Context, projectID int) ([]gitlabapi.Branch, error)
}

// SampleBuilder produces a branch mapping sample from live GitLab state: one
// entry per project listing every existing branch with an empty newBranch.
type SampleBuilder struct {
	Lister ProjectLister
}

// Build lists every project and its branches concurrently.
func (builder SampleBuilder) Build(executionContext context.Context) ([]ProjectMapping, error) {
	projects, listError := builder.Lister.ListProjects(executionContext)
	if listError != nil {
		return nil, fmt.Errorf(sampleProjectsErrorTemplate, listError)
	}

	mappings := make([]ProjectMapping, len(projects))
	group, groupContext := errgroup.WithContext(executionContext)
	for projectIndex := range projects {
		project := projects[projectIndex]
		group.Go(func() error {
			branches, branchesError := builder.Lister.ListBranches(groupContext, project.ID)
			if branchesError != nil {
				return fmt.Errorf(sampleBranchesErrorTemplate, project.ID, branchesError)
			}
			entries := make([]BranchMappingEntry, 0, len(branches))
			for _, branch := range branches {
				entries = append(entries, BranchMappingEntry{OldBranch: branch.Name})
			}
			mappings[projectIndex] = ProjectMapping{ProjectID: project.ID, ProjectName: project.Name, Branches: entries}
			return nil
		})
	}

	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	return mappings, nil
}
