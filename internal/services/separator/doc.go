// Package separator builds the vocal remover inference command and names its
// outputs.
package separator
