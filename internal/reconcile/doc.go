// Package reconcile validates branch mapping files against live GitLab state
// and rewrites target branches, keeping each project's default branch on an
// existing ref throughout the rewrite.
package reconcile
