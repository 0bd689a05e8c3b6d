// Package importer seeds courses from YAML definitions on disk, the way
// instructors ship starter content.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/pkg/logger"
)

type courseRegistry interface {
	RegisterCourse(ctx context.Context, course *models.Course) (uuid.UUID, error)
}

type Importer struct {
	log     logger.Log
	courses courseRegistry
}

func New(log logger.Log, courses courseRegistry) *Importer {
	return &Importer{log: log, courses: courses}
}

type courseFile struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Certificate bool          `yaml:"certificate"`
	Chapters    []chapterFile `yaml:"chapters"`
}

type chapterFile struct {
	Title   string       `yaml:"title"`
	Lessons []lessonFile `yaml:"lessons"`
}

type lessonFile struct {
	Title       string           `yaml:"title"`
	Content     string           `yaml:"content"`
	DurationSec int              `yaml:"duration_sec"`
	QuizGated   bool             `yaml:"quiz_gated"`
	Quiz        *quizFile        `yaml:"quiz"`
	Attachments []attachmentFile `yaml:"attachments"`
}

type quizFile struct {
	Question    string   `yaml:"question"`
	Options     []string `yaml:"options"`
	AnswerIndex int      `yaml:"answer_index"`
}

type attachmentFile struct {
	Name string `yaml:"name"`
	Ref  string `yaml:"ref"`
}

// ImportDir loads every .yaml/.yml file under dir as one course. A file
// that fails validation is skipped with a logged error; the rest still
// import. Returns the number of courses created.
func (i *Importer) ImportDir(ctx context.Context, dir string) (int, error) {
	imported := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if err := i.importFile(ctx, path); err != nil {
			i.log.ErrorErr("course import skipped", err, "path", path)
			return nil
		}
		imported++
		return nil
	})
	if err != nil {
		return imported, fmt.Errorf("walking import dir: %w", err)
	}
	i.log.Info("course import finished", "dir", dir, "imported", imported)
	return imported, nil
}

func (i *Importer) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file courseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if file.Title == "" {
		return fmt.Errorf("%s: course title is required", path)
	}

	course, err := buildCourse(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := i.courses.RegisterCourse(ctx, course); err != nil {
		return fmt.Errorf("creating course from %s: %w", path, err)
	}
	return nil
}

func buildCourse(file courseFile) (*models.Course, error) {
	now := time.Now().UTC()
	course := &models.Course{
		ID:                 uuid.New(),
		Title:              file.Title,
		Description:        file.Description,
		CertificateEnabled: file.Certificate,
		Status:             models.StatusHidden,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, cf := range file.Chapters {
		chapter := models.Chapter{
			ID:        uuid.New(),
			CourseID:  course.ID,
			Title:     cf.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, lf := range cf.Lessons {
			lesson := models.Lesson{
				ID:          uuid.New(),
				ChapterID:   chapter.ID,
				Title:       lf.Title,
				Content:     lf.Content,
				DurationSec: lf.DurationSec,
				QuizGated:   lf.QuizGated,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if lf.Quiz != nil {
				if len(lf.Quiz.Options) == 0 ||
					lf.Quiz.AnswerIndex < 0 || lf.Quiz.AnswerIndex >= len(lf.Quiz.Options) {
					return nil, app_errors.ErrInvalidAnswerIndex
				}
				lesson.Quiz = &models.Quiz{
					ID:          uuid.New(),
					Question:    lf.Quiz.Question,
					Options:     lf.Quiz.Options,
					AnswerIndex: lf.Quiz.AnswerIndex,
				}
			}
			for _, af := range lf.Attachments {
				lesson.Attachments = append(lesson.Attachments, models.Attachment{
					ID:   uuid.New(),
					Name: af.Name,
					Ref:  af.Ref,
				})
			}
			chapter.Lessons = append(chapter.Lessons, lesson)
		}
		course.Chapters = append(course.Chapters, chapter)
	}
	return course, nil
}
