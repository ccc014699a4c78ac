// Package language provides unified language code normalization plus the
// per-language phrase tables used by fallback subtitle generation.
package language
