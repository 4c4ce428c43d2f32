// Package deps reports whether the external programs the pipeline drives are
// installed.
package deps
