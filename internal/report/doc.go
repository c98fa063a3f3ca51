// Package report prints the checked-out branch and latest commit of every managed repository.
package report
