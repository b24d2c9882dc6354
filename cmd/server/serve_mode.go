package main

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServeMode = errors.New("invalid serve mode")

// ServeMode selects which surfaces one process exposes.
type ServeMode string

const (
	ServeModeMonolith ServeMode = "monolith"
	ServeModeWeb      ServeMode = "web"
	ServeModeAPI      ServeMode = "api"
)

func ParseServeMode(rawInput string) (ServeMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawInput))
	if normalized == "" {
		return ServeModeMonolith, nil
	}

	mode := ServeMode(normalized)
	switch mode {
	case ServeModeMonolith, ServeModeWeb, ServeModeAPI:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidServeMode, rawInput)
	}
}

// ServesBackend reports whether the JSON API, health, and metrics routes are mounted.
func (mode ServeMode) ServesBackend() bool {
	return mode == ServeModeMonolith || mode == ServeModeAPI
}

// ServesFrontend reports whether the browser pages are mounted.
func (mode ServeMode) ServesFrontend() bool {
	return mode == ServeModeMonolith || mode == ServeModeWeb
}
