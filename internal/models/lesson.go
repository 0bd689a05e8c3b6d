package models

import (
	"time"

	"github.com/google/uuid"
)

type Lesson struct {
	ID             uuid.UUID    `json:"id"`
	ChapterID      uuid.UUID    `json:"chapter_id"`
	Title          string       `json:"title"`
	Content        string       `json:"content,omitempty"`
	VideoObjectKey string       `json:"video_object_key,omitempty"`
	DurationSec    int          `json:"duration_sec,omitempty"`
	QuizGated      bool         `json:"quiz_gated"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Quiz           *Quiz        `json:"quiz,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Quiz is a single multiple-choice question. AnswerIndex must point into
// Options; the editor validates this before the quiz reaches the tree.
type Quiz struct {
	ID          uuid.UUID `json:"id"`
	Question    string    `json:"question"`
	Options     []string  `json:"options"`
	AnswerIndex int       `json:"answer_index"`
}

type Attachment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Ref  string    `json:"ref"`
}

// LessonUpdate carries the editable lesson fields. Nil means "leave as is".
type LessonUpdate struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	VideoRef    *string `json:"video_ref,omitempty"`
	DurationSec *int    `json:"duration_sec,omitempty"`
	QuizGated   *bool   `json:"quiz_gated,omitempty"`
}
