// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"github.com/spf13/afero"
)

// FileLoader provides file content for cache misses and receives
// flushed buffers. Implementations must be safe for concurrent use.
type FileLoader interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}

// AferoLoader adapts any afero filesystem as a FileLoader.
type AferoLoader struct {
	Fs afero.Fs
}

// NewOsLoader returns a loader backed by the operating system
// filesystem.
func NewOsLoader() *AferoLoader {
	return &AferoLoader{Fs: afero.NewOsFs()}
}

// NewMemLoader returns a loader backed by an in-memory filesystem,
// useful for testing and ephemeral documents.
func NewMemLoader() *AferoLoader {
	return &AferoLoader{Fs: afero.NewMemMapFs()}
}

func (l *AferoLoader) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(l.Fs, name)
}

func (l *AferoLoader) WriteFile(name string, data []byte) error {
	return afero.WriteFile(l.Fs, name, data, 0o644)
}
