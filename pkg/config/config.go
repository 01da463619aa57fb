// Package config loads YAML configuration files into typed structs.
//
// Values of the form ${VAR} are expanded from the environment before the
// document is decoded, so secrets such as auth tokens can stay out of the
// file itself.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that can check themselves
// after decoding.
type Validator interface {
	Validate() error
}

// Load reads filename and decodes it over target.
func Load[T any](filename string, target *T) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open config file %s: %w", filename, err)
	}
	defer f.Close()

	if err := Decode(f, target); err != nil {
		return fmt.Errorf("config file %s: %w", filename, err)
	}
	return nil
}

// LoadIfExists behaves like Load but leaves target untouched, apart from
// validation, when filename does not exist.
func LoadIfExists[T any](filename string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return validate(target)
	}
	return Load(filename, target)
}

// Decode expands environment references in r, unmarshals the YAML over
// target and validates the result. Fields absent from the document keep the
// values target already held.
func Decode[T any](r io.Reader, target *T) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	return validate(target)
}

func validate[T any](target *T) error {
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}
