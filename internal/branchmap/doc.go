// Package branchmap loads the operator-edited mapping files consumed by the
// GitLab commands and writes sample files when a mapping is missing.
package branchmap
