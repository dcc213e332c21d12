//go:build !opencl

package main

import (
	"errors"

	"github.com/aklo360/mcliv/field"
)

type openCLStepper struct{}

func newOpenCLStepper(field.Physics) (*openCLStepper, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (s *openCLStepper) Step(*field.Field, field.StepInput) error {
	return errors.New("OpenCL stepper unavailable")
}

func (s *openCLStepper) Close() {}

func (s *openCLStepper) DeviceName() string { return "" }
