package branchmap_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/devops/internal/branchmap"
)

const (
	loaderSubtestNameTemplate    = "%d_%s"
	jsonMappingFileNameConstant  = "gitlab-update-branch-config.json"
	yamlMappingFileNameConstant  = "gitlab-update-branch-config.yaml"
	validJSONMappingConstant     = `[{"projectId":1,"projectName":"svc-a","branches":[{"oldBranch":"main","newBranch":"release-9"}]}]`
	validYAMLMappingConstant     = "- projectId: 1\n  projectName: svc-a\n  branches:\n    - oldBranch: main\n      newBranch: release-9\n"
	unknownFieldMappingConstant  = `[{"projectId":1,"projectName":"svc-a","branchez":[]}]`
	missingIdentifierMapping     = `[{"projectName":"svc-a","branches":[]}]`
	missingNameMappingConstant   = `[{"projectId":3,"projectName":"  ","branches":[]}]`
	truncatedJSONMappingConstant = `[{"projectId":1,`
	protectedJSONMappingConstant = `[{"projectId":4,"projectName":"svc-d","branches":["main","release"]}]`
	duplicateProjectMapping      = `[{"projectId":1,"projectName":"svc-a","branches":[]},{"projectId":2,"projectName":"svc-b","branches":[]},{"projectId":1,"projectName":"svc-a","branches":[]}]`
	duplicateProtectedMapping    = `[{"projectId":4,"projectName":"svc-d","branches":["main"]},{"projectId":4,"projectName":"svc-d","branches":["release"]}]`
)

func writeMappingFile(testInstance *testing.T, fileName string, content string) string {
	testInstance.Helper()
	mappingPath := filepath.Join(testInstance.TempDir(), fileName)
	require.NoError(testInstance, os.WriteFile(mappingPath, []byte(content), 0o600))
	return mappingPath
}

func TestLoadParsesSupportedFormats(testInstance *testing.T) {
	expected := []branchmap.ProjectMapping{
		{
			ProjectID:   1,
			ProjectName: "svc-a",
			Branches:    []branchmap.BranchMappingEntry{{OldBranch: "main", NewBranch: "release-9"}},
		},
	}

	testCases := []struct {
		name     string
		fileName string
		content  string
	}{
		{name: "json", fileName: jsonMappingFileNameConstant, content: validJSONMappingConstant},
		{name: "yaml", fileName: yamlMappingFileNameConstant, content: validYAMLMappingConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(loaderSubtestNameTemplate, testCaseIndex, testCase.name), func(subtest *testing.T) {
			mappingPath := writeMappingFile(subtest, testCase.fileName, testCase.content)

			mappings, loadError := branchmap.Load(mappingPath)
			require.NoError(subtest, loadError)
			require.Equal(subtest, expected, mappings)
		})
	}
}

func TestLoadReportsConfigErrors(testInstance *testing.T) {
	testCases := []struct {
		name            string
		fileName        string
		content         string
		skipWrite       bool
		expectedMissing bool
		expectedMessage string
	}{
		{name: "missing_file", fileName: jsonMappingFileNameConstant, skipWrite: true, expectedMissing: true},
		{name: "truncated_json", fileName: jsonMappingFileNameConstant, content: truncatedJSONMappingConstant},
		{name: "unknown_field", fileName: jsonMappingFileNameConstant, content: unknownFieldMappingConstant, expectedMessage: "branchez"},
		{name: "missing_project_id", fileName: jsonMappingFileNameConstant, content: missingIdentifierMapping, expectedMessage: "projectId"},
		{name: "blank_project_name", fileName: jsonMappingFileNameConstant, content: missingNameMappingConstant, expectedMessage: "projectName"},
		{name: "unsupported_extension", fileName: "mapping.txt", content: validJSONMappingConstant, expectedMessage: "unsupported"},
		{name: "duplicate_project_id", fileName: jsonMappingFileNameConstant, content: duplicateProjectMapping, expectedMessage: "entry 2: projectId 1 is already listed by entry 0"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(loaderSubtestNameTemplate, testCaseIndex, testCase.name), func(subtest *testing.T) {
			mappingPath := filepath.Join(subtest.TempDir(), testCase.fileName)
			if !testCase.skipWrite {
				mappingPath = writeMappingFile(subtest, testCase.fileName, testCase.content)
			}

			mappings, loadError := branchmap.Load(mappingPath)
			require.Error(subtest, loadError)
			require.Nil(subtest, mappings)

			var configError branchmap.ConfigError
			require.True(subtest, errors.As(loadError, &configError))
			require.Equal(subtest, mappingPath, configError.Path)
			require.Equal(subtest, testCase.expectedMissing, errors.Is(loadError, branchmap.ErrMappingFileMissing))
			if len(testCase.expectedMessage) > 0 {
				require.Contains(subtest, loadError.Error(), testCase.expectedMessage)
			}
		})
	}
}

func TestLoadProtectedParsesBranchNames(testInstance *testing.T) {
	mappingPath := writeMappingFile(testInstance, "gitlab-protected-branch-config.json", protectedJSONMappingConstant)

	mappings, loadError := branchmap.LoadProtected(mappingPath)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []branchmap.ProtectedBranchMapping{
		{ProjectID: 4, ProjectName: "svc-d", Branches: []string{"main", "release"}},
	}, mappings)
}

func TestLoadProtectedRejectsDuplicateProjects(testInstance *testing.T) {
	mappingPath := writeMappingFile(testInstance, "gitlab-protected-branch-config.json", duplicateProtectedMapping)

	mappings, loadError := branchmap.LoadProtected(mappingPath)
	require.Nil(testInstance, mappings)
	var configError branchmap.ConfigError
	require.ErrorAs(testInstance, loadError, &configError)
	require.Contains(testInstance, loadError.Error(), "projectId 4 is already listed")
}

func TestDecodeAcceptsEmptyYAML(testInstance *testing.T) {
	entries, decodeError := branchmap.Decode[branchmap.ProjectMapping](strings.NewReader(""), yamlMappingFileNameConstant)
	require.NoError(testInstance, decodeError)
	require.Empty(testInstance, entries)
}
