package branchmap

// BranchMappingEntry requests that NewBranch be (re)created from the tip of OldBranch.
type BranchMappingEntry struct {
	OldBranch string `json:"oldBranch" yaml:"oldBranch"`
	NewBranch string `json:"newBranch" yaml:"newBranch"`
}

// ProjectMapping groups the branch entries reconciled for one GitLab project.
type ProjectMapping struct {
	ProjectID   int                  `json:"projectId" yaml:"projectId"`
	ProjectName string               `json:"projectName" yaml:"projectName"`
	Branches    []BranchMappingEntry `json:"branches" yaml:"branches"`
}

// ProtectedBranchMapping lists the branches to protect in one GitLab project.
type ProtectedBranchMapping struct {
	ProjectID   int      `json:"projectId" yaml:"projectId"`
	ProjectName string   `json:"projectName" yaml:"projectName"`
	Branches    []string `json:"branches" yaml:"branches"`
}
