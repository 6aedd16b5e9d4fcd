// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package state

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/hashicorp/source-ls/internal/document"
)

// HandleFieldIndexer indexes a document.Handle field by its full URI.
type HandleFieldIndexer struct {
	Field string
}

func (s *HandleFieldIndexer) FromObject(obj interface{}) (bool, []byte, error) {
	v := reflect.ValueOf(obj)
	v = reflect.Indirect(v) // Dereference the pointer if any

	fv := v.FieldByName(s.Field)
	rawHandle := fv.Interface()
	if rawHandle == nil {
		return false, nil, nil
	}

	h, ok := rawHandle.(document.Handle)
	if !ok {
		return false, nil,
			fmt.Errorf("field %q for %#v is not a document handle", s.Field, obj)
	}

	val := h.FullURI()
	if val == "" {
		return false, nil, nil
	}

	// Add the null character as a terminator
	val += "\x00"

	return true, []byte(val), nil
}

func (s *HandleFieldIndexer) FromArgs(args ...interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("must provide only a single argument")
	}
	if args[0] == nil {
		return nil, nil
	}
	arg, ok := args[0].(document.Handle)
	if !ok {
		return nil, fmt.Errorf("argument must be a Handle: %#v", args[0])
	}

	val := arg.FullURI()
	// Add the null character as a terminator
	val += "\x00"

	return []byte(val), nil
}

func (s *HandleFieldIndexer) PrefixFromArgs(args ...interface{}) ([]byte, error) {
	idx, err := s.FromArgs(args...)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(idx, []byte("\x00")), nil
}
