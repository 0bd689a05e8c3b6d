package models

import "github.com/google/uuid"

// Clone returns a deep structural copy of the course. Editor operations use
// it for copy-on-write: readers holding the old value never observe a
// partial update.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Chapters = make([]Chapter, len(c.Chapters))
	for i := range c.Chapters {
		cp.Chapters[i] = *c.Chapters[i].clone()
	}
	return &cp
}

func (ch *Chapter) clone() *Chapter {
	cp := *ch
	cp.Lessons = make([]Lesson, len(ch.Lessons))
	for i := range ch.Lessons {
		cp.Lessons[i] = *ch.Lessons[i].clone()
	}
	return &cp
}

func (l *Lesson) clone() *Lesson {
	cp := *l
	if l.Quiz != nil {
		q := *l.Quiz
		q.Options = append([]string(nil), l.Quiz.Options...)
		cp.Quiz = &q
	}
	cp.Attachments = append([]Attachment(nil), l.Attachments...)
	return &cp
}

// ReassignIDs gives the course and every descendant a fresh identity,
// keeping parent references consistent. Used when duplicating a course.
func (c *Course) ReassignIDs() {
	c.ID = uuid.New()
	for i := range c.Chapters {
		ch := &c.Chapters[i]
		ch.ID = uuid.New()
		ch.CourseID = c.ID
		for j := range ch.Lessons {
			l := &ch.Lessons[j]
			l.ID = uuid.New()
			l.ChapterID = ch.ID
			if l.Quiz != nil {
				l.Quiz.ID = uuid.New()
			}
			for k := range l.Attachments {
				l.Attachments[k].ID = uuid.New()
			}
		}
	}
}
