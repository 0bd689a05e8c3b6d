package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
)

type EnrollmentPostgres struct {
	db *pgxpool.Pool
}

func NewEnrollmentPostgres(db *pgxpool.Pool) *EnrollmentPostgres {
	return &EnrollmentPostgres{db: db}
}

func (r *EnrollmentPostgres) Enroll(ctx context.Context, courseID, userID uuid.UUID) error {
	query := `
        INSERT INTO enrollments (id, course_id, user_id, created_at)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.db.Exec(ctx, query, uuid.New(), courseID, userID, time.Now().UTC())
	if err != nil {
		if pgErr := UnwrapPgError(err); pgErr != nil && pgErr.Code == uniqueViolation {
			return app_errors.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to enroll: %w", err)
	}
	return nil
}

func (r *EnrollmentPostgres) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	query := `
        SELECT id, course_id, user_id, created_at
          FROM enrollments
         WHERE course_id = $1
         ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *EnrollmentPostgres) IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, query, courseID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}
