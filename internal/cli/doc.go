// Package cli parses the cellgen command line into a generation request.
package cli
