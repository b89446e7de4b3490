package neo4j

import (
	"context"
	"fmt"

	"github.com/iitdbuddy/buddy/internal/graph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository and verifies connectivity.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreCourse(ctx context.Context, course graph.Course, prerequisites []string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MERGE (c:Course {code: $code}) SET c.title = $title",
			map[string]any{"code": course.Code, "title": course.Title})
		if err != nil {
			return nil, err
		}
		for _, prereq := range prerequisites {
			_, err := tx.Run(ctx,
				"MERGE (c:Course {code: $code}) "+
					"MERGE (p:Course {code: $prereq}) "+
					"MERGE (c)-[:REQUIRES]->(p)",
				map[string]any{"code": course.Code, "prereq": prereq})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store course %s: %w", course.Code, err)
	}
	return nil
}

func (r *Neo4jRepository) Prerequisites(ctx context.Context, code string) ([]graph.Course, error) {
	return r.query(ctx, code,
		"MATCH (:Course {code: $code})-[:REQUIRES]->(p:Course) "+
			"RETURN p.code AS code, p.title AS title ORDER BY code")
}

func (r *Neo4jRepository) TransitivePrerequisites(ctx context.Context, code string) ([]graph.Course, error) {
	return r.query(ctx, code,
		"MATCH (:Course {code: $code})-[:REQUIRES*1..]->(p:Course) "+
			"RETURN DISTINCT p.code AS code, p.title AS title ORDER BY code")
}

func (r *Neo4jRepository) query(ctx context.Context, code, cypher string) ([]graph.Course, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypher, map[string]any{"code": code})
		if err != nil {
			return nil, err
		}

		var courses []graph.Course
		for records.Next(ctx) {
			rec := records.Record()
			c, _ := rec.Get("code")
			t, _ := rec.Get("title")
			course := graph.Course{}
			if s, ok := c.(string); ok {
				course.Code = s
			}
			if s, ok := t.(string); ok {
				course.Title = s
			}
			courses = append(courses, course)
		}
		return courses, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query prerequisites of %s: %w", code, err)
	}
	courses, _ := result.([]graph.Course)
	return courses, nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graph.Repository = (*Neo4jRepository)(nil)
