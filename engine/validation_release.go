//go:build release

package engine

const defaultValidation = false
