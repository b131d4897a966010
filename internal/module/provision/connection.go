package provision

import (
	"context"
	"fmt"

	"github.com/gradlink/server/internal/shared/store"
)

// ConnectionRepository reads student-supervisor connection records.
type ConnectionRepository struct {
	gateway store.Gateway
}

// NewConnectionRepository creates a connection repository.
func NewConnectionRepository(gateway store.Gateway) *ConnectionRepository {
	return &ConnectionRepository{gateway: gateway}
}

// ActiveForStudent returns the first active connection for a student, or nil
// when the student has none. A student with multiple active connections gets
// the first match; ordering is not defined beyond that.
func (r *ConnectionRepository) ActiveForStudent(ctx context.Context, studentUID string) (*Connection, error) {
	var conns []Connection
	err := r.gateway.Query(ctx, ConnectionCollection, []store.Filter{
		{Field: "student_uid", Value: studentUID},
		{Field: "status", Value: ConnectionActive},
	}, &conns)
	if err != nil {
		return nil, fmt.Errorf("query connections for student %s: %w", studentUID, err)
	}
	if len(conns) == 0 {
		return nil, nil
	}
	return &conns[0], nil
}

// Between returns the connection pairing a specific student and supervisor,
// whatever its status, or nil when none exists.
func (r *ConnectionRepository) Between(ctx context.Context, studentUID, supervisorUID string) (*Connection, error) {
	var conns []Connection
	err := r.gateway.Query(ctx, ConnectionCollection, []store.Filter{
		{Field: "student_uid", Value: studentUID},
		{Field: "supervisor_uid", Value: supervisorUID},
	}, &conns)
	if err != nil {
		return nil, fmt.Errorf("query connection %s/%s: %w", studentUID, supervisorUID, err)
	}
	if len(conns) == 0 {
		return nil, nil
	}
	return &conns[0], nil
}
