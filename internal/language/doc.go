// Package language maps user-supplied language names and codes onto the
// ISO 639-1 codes whisper.cpp accepts for --language.
package language
