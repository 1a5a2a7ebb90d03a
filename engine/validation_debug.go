//go:build !release

package engine

// Development builds enable the Khronos validation layer unless the config turns it off.
const defaultValidation = true
