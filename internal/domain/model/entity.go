package model

import (
	"regexp"
	"time"
)

// Entity is a tracked subject (an artist) that signals and events refer to.
type Entity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SceneID     string    `json:"scene_id,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// ValidID reports whether id is usable as an entity, scene or workspace key.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
