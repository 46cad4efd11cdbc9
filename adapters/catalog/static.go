package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/grandigitals/superteam-academy/core"
)

// StaticCatalog serves a fixed course list from memory. Course content is
// authored elsewhere; only the bookkeeping metadata lives here.
type StaticCatalog struct {
	courses map[string]core.Course
}

// NewStaticCatalog builds a catalog from the given courses.
func NewStaticCatalog(courses []core.Course) *StaticCatalog {
	byID := make(map[string]core.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return &StaticCatalog{courses: byID}
}

// DefaultCourses is the development seed used by the ephemeral backend.
func DefaultCourses() []core.Course {
	return []core.Course{
		{ID: "solana-101", Creator: "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH", LessonCount: 8, XPPerLesson: 50, Track: "fundamentals", TrackLevel: 1, Difficulty: 1, Active: true},
		{ID: "anchor-201", Creator: "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH", LessonCount: 12, XPPerLesson: 75, Track: "anchor", TrackLevel: 2, Difficulty: 2, Active: true},
		{ID: "defi-301", Creator: "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH", LessonCount: 10, XPPerLesson: 100, Track: "defi", TrackLevel: 3, Difficulty: 3, Active: true},
		{ID: "legacy-draft", Creator: "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH", LessonCount: 4, XPPerLesson: 25, Track: "fundamentals", TrackLevel: 1, Difficulty: 1, Active: false},
	}
}

// GetCourse returns core.ErrCourseNotFound for unknown IDs
func (c *StaticCatalog) GetCourse(ctx context.Context, courseID string) (*core.Course, error) {
	course, exists := c.courses[courseID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrCourseNotFound, courseID)
	}
	return &course, nil
}

// ListCourses returns all courses sorted by ID
func (c *StaticCatalog) ListCourses(ctx context.Context) ([]core.Course, error) {
	out := make([]core.Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
