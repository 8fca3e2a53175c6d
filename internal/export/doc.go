// Package export renders recorded runs as SVG trajectory plots or as a
// single JSON document.
package export
