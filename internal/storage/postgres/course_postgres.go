package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
)

// CoursePostgres persists course aggregates. Chapters and lessons are
// normalized into their own tables with explicit positions; quizzes and
// attachments travel as JSON columns on the lesson row.
type CoursePostgres struct {
	db *pgxpool.Pool
}

func NewCoursePostgres(db *pgxpool.Pool) *CoursePostgres {
	return &CoursePostgres{db: db}
}

func (r *CoursePostgres) CreateCourse(ctx context.Context, course *models.Course) (uuid.UUID, error) {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO courses (
			id, title, description, thumbnail_object_key, status,
			certificate_enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query,
		course.ID, course.Title, course.Description, course.ThumbnailObjectKey,
		course.Status, course.CertificateEnabled, course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert course: %w", err)
	}

	if err := r.writeTree(ctx, tx, course); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return course.ID, nil
}

func (r *CoursePostgres) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	const query = `
        SELECT id, title, description, thumbnail_object_key, status,
               certificate_enabled, created_at, updated_at
          FROM courses
         WHERE id = $1
    `
	course := &models.Course{}
	row := r.db.QueryRow(ctx, query, id)
	err := row.Scan(
		&course.ID, &course.Title, &course.Description, &course.ThumbnailObjectKey,
		&course.Status, &course.CertificateEnabled, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrCourseNotFound
		}
		return nil, err
	}

	if err := r.loadTree(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (r *CoursePostgres) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `
        SELECT id, title, description, thumbnail_object_key, status,
               certificate_enabled, created_at, updated_at
          FROM courses
         ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.ThumbnailObjectKey,
			&c.Status, &c.CertificateEnabled, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	for i := range courses {
		if err := r.loadTree(ctx, &courses[i]); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// SaveCourse rewrites the whole aggregate in one transaction: the course row
// is updated and the chapter/lesson rows are replaced with the new tree.
func (r *CoursePostgres) SaveCourse(ctx context.Context, course *models.Course) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	course.UpdatedAt = time.Now().UTC()
	const update = `
        UPDATE courses
           SET title = $2, description = $3, thumbnail_object_key = $4,
               status = $5, certificate_enabled = $6, updated_at = $7
         WHERE id = $1
    `
	tag, err := tx.Exec(ctx, update,
		course.ID, course.Title, course.Description, course.ThumbnailObjectKey,
		course.Status, course.CertificateEnabled, course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lessons WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear lessons: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chapters WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear chapters: %w", err)
	}
	if err := r.writeTree(ctx, tx, course); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CoursePostgres) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lessons WHERE course_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chapters WHERE course_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}
	return tx.Commit(ctx)
}

func (r *CoursePostgres) writeTree(ctx context.Context, tx pgx.Tx, course *models.Course) error {
	const chapterInsert = `
        INSERT INTO chapters (id, course_id, title, position, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	const lessonInsert = `
        INSERT INTO lessons (
            id, chapter_id, course_id, title, content, video_object_key,
            duration_sec, quiz_gated, position, quiz_json, attachments_json,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	for ci := range course.Chapters {
		ch := &course.Chapters[ci]
		_, err := tx.Exec(ctx, chapterInsert,
			ch.ID, course.ID, ch.Title, ci, ch.CreatedAt, ch.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert chapter: %w", err)
		}
		for li := range ch.Lessons {
			l := &ch.Lessons[li]
			var quizJSON, attachmentsJSON *string
			if l.Quiz != nil {
				data, err := json.Marshal(l.Quiz)
				if err != nil {
					return fmt.Errorf("marshal quiz: %w", err)
				}
				s := string(data)
				quizJSON = &s
			}
			if len(l.Attachments) > 0 {
				data, err := json.Marshal(l.Attachments)
				if err != nil {
					return fmt.Errorf("marshal attachments: %w", err)
				}
				s := string(data)
				attachmentsJSON = &s
			}
			_, err := tx.Exec(ctx, lessonInsert,
				l.ID, ch.ID, course.ID, l.Title, l.Content, l.VideoObjectKey,
				l.DurationSec, l.QuizGated, li, quizJSON, attachmentsJSON,
				l.CreatedAt, l.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert lesson: %w", err)
			}
		}
	}
	return nil
}

func (r *CoursePostgres) loadTree(ctx context.Context, course *models.Course) error {
	const chaptersQuery = `
        SELECT id, title, created_at, updated_at
          FROM chapters
         WHERE course_id = $1
         ORDER BY position
    `
	rows, err := r.db.Query(ctx, chaptersQuery, course.ID)
	if err != nil {
		return fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	course.Chapters = nil
	for rows.Next() {
		ch := models.Chapter{CourseID: course.ID}
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return err
		}
		course.Chapters = append(course.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const lessonsQuery = `
        SELECT id, chapter_id, title, content, video_object_key, duration_sec,
               quiz_gated, quiz_json, attachments_json, created_at, updated_at
          FROM lessons
         WHERE course_id = $1
         ORDER BY position
    `
	lrows, err := r.db.Query(ctx, lessonsQuery, course.ID)
	if err != nil {
		return fmt.Errorf("failed to query lessons: %w", err)
	}
	defer lrows.Close()

	byChapter := make(map[uuid.UUID][]models.Lesson)
	for lrows.Next() {
		var l models.Lesson
		var quizJSON, attachmentsJSON *string
		if err := lrows.Scan(
			&l.ID, &l.ChapterID, &l.Title, &l.Content, &l.VideoObjectKey,
			&l.DurationSec, &l.QuizGated, &quizJSON, &attachmentsJSON,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return err
		}
		if quizJSON != nil {
			var quiz models.Quiz
			if err := json.Unmarshal([]byte(*quizJSON), &quiz); err != nil {
				return fmt.Errorf("unmarshal quiz: %w", err)
			}
			l.Quiz = &quiz
		}
		if attachmentsJSON != nil {
			if err := json.Unmarshal([]byte(*attachmentsJSON), &l.Attachments); err != nil {
				return fmt.Errorf("unmarshal attachments: %w", err)
			}
		}
		byChapter[l.ChapterID] = append(byChapter[l.ChapterID], l)
	}
	if err := lrows.Err(); err != nil {
		return err
	}

	for i := range course.Chapters {
		course.Chapters[i].Lessons = byChapter[course.Chapters[i].ID]
	}
	return nil
}
