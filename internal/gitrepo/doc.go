// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// RepositoryManager drives the git CLI for branch, stash, rebase and push operations,
// while RepositoryInspector uses go-git to confirm that a path holds a repository
// before any command runs against it.
package gitrepo
