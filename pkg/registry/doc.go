// Package registry holds the fixed catalog of whiteboard tools.
//
// Each tool is a variant of the sealed Tool interface. The Registry maps tool
// names to their definitions (description plus JSON Schema parameters) and
// decodes raw model input into a validated variant.
package registry
