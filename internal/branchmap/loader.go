package branchmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configErrorTemplateConstant          = "mapping file %s: %v"
	entryErrorTemplateConstant           = "entry %d: %s"
	projectIDRequiredMessageConstant     = "projectId must be a positive number"
	projectNameRequiredMessageConstant   = "projectName is required"
	duplicateProjectTemplateConstant     = "projectId %d is already listed by entry %d"
	mappingFileMissingMessageConstant    = "mapping file does not exist"
	mappingFileDirectoryMessageConstant  = "mapping path is a directory"
	unsupportedExtensionTemplateConstant = "unsupported mapping file extension %q"
	trailingContentMessageConstant       = "unexpected content after mapping array"
	jsonExtensionConstant                = ".json"
	yamlExtensionConstant                = ".yaml"
	ymlExtensionConstant                 = ".yml"
)

// ErrMappingFileMissing indicates that the mapping file does not exist.
var ErrMappingFileMissing = errors.New(mappingFileMissingMessageConstant)

// ConfigError reports a missing or malformed mapping file.
type ConfigError struct {
	Path  string
	Cause error
}

// Error describes the configuration failure.
func (configError ConfigError) Error() string {
	return fmt.Sprintf(configErrorTemplateConstant, configError.Path, configError.Cause)
}

// Unwrap exposes the underlying cause.
func (configError ConfigError) Unwrap() error {
	return configError.Cause
}

// Load reads the branch mapping file at path. JSON is used for .json files and
// YAML for .yaml/.yml files.
func Load(path string) ([]ProjectMapping, error) {
	mappings, loadError := loadEntries[ProjectMapping](path)
	if loadError != nil {
		return nil, loadError
	}

	seenProjects := make(map[int]int, len(mappings))
	for mappingIndex, mapping := range mappings {
		if shapeError := checkProjectIdentity(mapping.ProjectID, mapping.ProjectName, seenProjects, mappingIndex); shapeError != nil {
			return nil, ConfigError{Path: path, Cause: fmt.Errorf(entryErrorTemplateConstant, mappingIndex, shapeError)}
		}
	}

	return mappings, nil
}

// LoadProtected reads the protected branch mapping file at path.
func LoadProtected(path string) ([]ProtectedBranchMapping, error) {
	mappings, loadError := loadEntries[ProtectedBranchMapping](path)
	if loadError != nil {
		return nil, loadError
	}

	seenProjects := make(map[int]int, len(mappings))
	for mappingIndex, mapping := range mappings {
		if shapeError := checkProjectIdentity(mapping.ProjectID, mapping.ProjectName, seenProjects, mappingIndex); shapeError != nil {
			return nil, ConfigError{Path: path, Cause: fmt.Errorf(entryErrorTemplateConstant, mappingIndex, shapeError)}
		}
	}

	return mappings, nil
}

// Decode parses mapping entries from reader using the format implied by fileName.
func Decode[Entry any](reader io.Reader, fileName string) ([]Entry, error) {
	content, readError := io.ReadAll(reader)
	if readError != nil {
		return nil, readError
	}

	entries := make([]Entry, 0)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case jsonExtensionConstant:
		decoder := json.NewDecoder(bytes.NewReader(content))
		decoder.DisallowUnknownFields()
		if decodeError := decoder.Decode(&entries); decodeError != nil {
			return nil, decodeError
		}
		if decoder.More() {
			return nil, errors.New(trailingContentMessageConstant)
		}
	case yamlExtensionConstant, ymlExtensionConstant:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if decodeError := decoder.Decode(&entries); decodeError != nil && !errors.Is(decodeError, io.EOF) {
			return nil, decodeError
		}
	default:
		return nil, fmt.Errorf(unsupportedExtensionTemplateConstant, filepath.Ext(fileName))
	}

	return entries, nil
}

func loadEntries[Entry any](path string) ([]Entry, error) {
	fileInfo, statError := os.Stat(path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, ConfigError{Path: path, Cause: ErrMappingFileMissing}
		}
		return nil, ConfigError{Path: path, Cause: statError}
	}
	if fileInfo.IsDir() {
		return nil, ConfigError{Path: path, Cause: errors.New(mappingFileDirectoryMessageConstant)}
	}

	file, openError := os.Open(path)
	if openError != nil {
		return nil, ConfigError{Path: path, Cause: openError}
	}
	defer file.Close()

	entries, decodeError := Decode[Entry](file, path)
	if decodeError != nil {
		return nil, ConfigError{Path: path, Cause: decodeError}
	}

	return entries, nil
}

// checkProjectIdentity records the entry index of projectID in seenProjects.
func checkProjectIdentity(projectID int, projectName string, seenProjects map[int]int, mappingIndex int) error {
	if projectID <= 0 {
		return errors.New(projectIDRequiredMessageConstant)
	}
	if len(strings.TrimSpace(projectName)) == 0 {
		return errors.New(projectNameRequiredMessageConstant)
	}
	if firstIndex, seen := seenProjects[projectID]; seen {
		return fmt.Errorf(duplicateProjectTemplateConstant, projectID, firstIndex)
	}
	seenProjects[projectID] = mappingIndex
	return nil
}
