// Package protection marks the branches listed in a protected branch mapping
// file as protected in GitLab.
package protection
