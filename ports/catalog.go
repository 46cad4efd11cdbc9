package ports

import (
	"context"

	"github.com/grandigitals/superteam-academy/core"
)

// CourseCatalog is the read-only boundary to course metadata. Content is
// authored elsewhere; this core only consumes lesson counts, XP rates and
// track assignments.
type CourseCatalog interface {
	// GetCourse returns core.ErrCourseNotFound for unknown IDs.
	GetCourse(ctx context.Context, courseID string) (*core.Course, error)
	ListCourses(ctx context.Context) ([]core.Course, error)
}
