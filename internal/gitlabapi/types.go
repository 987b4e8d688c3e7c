package gitlabapi

import (
	"fmt"
	"strings"
)

const (
	accessLevelFieldNameConstant       = "access_level"
	unknownAccessLevelTemplateConstant = "unknown access level %q"
)

// Project contains the project attributes consumed by the commands.
type Project struct {
	ID                int
	Name              string
	PathWithNamespace string
	DefaultBranch     string
}

// Branch describes a repository branch ref.
type Branch struct {
	Name      string
	CommitID  string
	Protected bool
	Default   bool
}

// Hook describes a project webhook.
type Hook struct {
	ID  int
	URL string
}

// AccessLevel mirrors GitLab access levels used by protected branches.
type AccessLevel int

// Access levels accepted by ProtectBranch.
const (
	AccessLevelNoAccess   AccessLevel = 0
	AccessLevelDeveloper  AccessLevel = 30
	AccessLevelMaintainer AccessLevel = 40
)

var accessLevelNames = map[string]AccessLevel{
	"no_access":  AccessLevelNoAccess,
	"developer":  AccessLevelDeveloper,
	"maintainer": AccessLevelMaintainer,
}

// ParseAccessLevel converts no_access, developer or maintainer (any case) into
// an AccessLevel.
func ParseAccessLevel(name string) (AccessLevel, error) {
	level, known := accessLevelNames[strings.ToLower(strings.TrimSpace(name))]
	if !known {
		return AccessLevelNoAccess, InvalidInputError{FieldName: accessLevelFieldNameConstant, Message: fmt.Sprintf(unknownAccessLevelTemplateConstant, name)}
	}
	return level, nil
}

// ProtectionOptions configures ProtectBranch.
type ProtectionOptions struct {
	PushAccessLevel  AccessLevel
	MergeAccessLevel AccessLevel
}
