package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// defaultSource is the path segment that selects the default backend.
const defaultSource = "-"

// apiError maps a domain error to the matching huma status error.
func apiError(msg string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		return huma.Error400BadRequest(msg + ": " + err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(msg + ": " + err.Error())
	default:
		return huma.Error500InternalServerError(msg + ": " + err.Error())
	}
}

func sourceParam(s string) string {
	if s == defaultSource {
		return ""
	}
	return s
}

func groupRef(source, namespace, group string) domain.GroupRef {
	return domain.GroupRef{
		Source:    sourceParam(source),
		Namespace: namespace,
		Group:     group,
	}
}
