// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user CUE files against an embedded schema.
//
// Parsing follows three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode into a generic map
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	values, err := cueutil.DecodeMap(schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"))
//	if err != nil {
//	    return err // error carries the field path, e.g. display.line_wrap_width
//	}
package cueutil
