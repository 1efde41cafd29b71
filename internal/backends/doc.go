// Package backends provides the format-specific builder.Backend strategies
// and a registry that maps configured format names to them.
//
// External tools (hugo, mkdocs, arbitrary commands) run through the
// lifecycle's environment with an explicit working directory. The markdown
// and htmlzip backends render in-process with goldmark.
package backends
