// Package packages defines the package descriptors that drive synchronization and builds.
//
// Descriptors are validated once when they are constructed, either from the keyed
// configuration form or from the positional list form
// [name, update, path, upstream, fork, branch] with an optional [build options, build flag] pair.
package packages
