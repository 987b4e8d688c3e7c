// Package inventory exports a snapshot of every visible GitLab project: its
// default branch, branch names and webhook URLs.
package inventory
