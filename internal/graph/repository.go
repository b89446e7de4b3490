// Package graph stores the course prerequisite graph built during indexing.
package graph

import "context"

// Course is one node in the prerequisite graph.
type Course struct {
	Code  string
	Title string
}

// Repository provides graph storage for course prerequisites.
type Repository interface {
	// StoreCourse upserts a course node and its REQUIRES edges. Prerequisite
	// codes without a known title still get a node.
	StoreCourse(ctx context.Context, course Course, prerequisites []string) error
	// Prerequisites returns the direct prerequisites of a course, sorted by
	// code.
	Prerequisites(ctx context.Context, code string) ([]Course, error)
	// TransitivePrerequisites returns every course reachable through
	// REQUIRES edges, sorted by code, the queried course excluded.
	TransitivePrerequisites(ctx context.Context, code string) ([]Course, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
