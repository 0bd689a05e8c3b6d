package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusHidden = "hidden"
	StatusPublic = "public"
)

// Course is the root of the content tree: Course -> Chapter -> Lesson.
// Chapter and lesson order is carried by slice position.
type Course struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ThumbnailObjectKey string    `json:"thumbnail_object_key"`
	Status             string    `json:"status"`
	CertificateEnabled bool      `json:"certificate_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Chapters           []Chapter `json:"chapters"`
}

type Chapter struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lessons   []Lesson  `json:"lessons"`
}

type CoursePreview struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ThumbnailURL       string    `json:"thumbnail_url"`
	Status             string    `json:"status"`
	LessonCount        int       `json:"lesson_count"`
	CertificateEnabled bool      `json:"certificate_enabled"`
}

// TotalLessons counts lessons across all chapters.
func (c *Course) TotalLessons() int {
	n := 0
	for i := range c.Chapters {
		n += len(c.Chapters[i].Lessons)
	}
	return n
}

// LessonIDs returns every lesson id in display order.
func (c *Course) LessonIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, c.TotalLessons())
	for i := range c.Chapters {
		for j := range c.Chapters[i].Lessons {
			ids = append(ids, c.Chapters[i].Lessons[j].ID)
		}
	}
	return ids
}

// FindChapter returns the chapter index, or -1 when the id is unknown.
func (c *Course) FindChapter(chapterID uuid.UUID) int {
	for i := range c.Chapters {
		if c.Chapters[i].ID == chapterID {
			return i
		}
	}
	return -1
}

// FindLesson returns chapter and lesson indexes, or (-1, -1) when the id is unknown.
func (c *Course) FindLesson(lessonID uuid.UUID) (int, int) {
	for i := range c.Chapters {
		for j := range c.Chapters[i].Lessons {
			if c.Chapters[i].Lessons[j].ID == lessonID {
				return i, j
			}
		}
	}
	return -1, -1
}

// Lesson returns the lesson with the given id, or nil.
func (c *Course) Lesson(lessonID uuid.UUID) *Lesson {
	ci, li := c.FindLesson(lessonID)
	if ci < 0 {
		return nil
	}
	return &c.Chapters[ci].Lessons[li]
}
