package app_errors

import "errors"

var ErrCourseNotFound = errors.New("course not found")
var ErrCourseNotPublished = errors.New("course not published")
var ErrChapterNotFound = errors.New("chapter not found")
var ErrLessonNotFound = errors.New("lesson not found")
var ErrQuizNotFound = errors.New("lesson has no quiz")
var ErrQuizAlreadySubmitted = errors.New("quiz already submitted in this session")
var ErrQuizNotTaken = errors.New("quiz not taken yet")
var ErrInvalidAnswerIndex = errors.New("quiz answer index is out of range")
var ErrAlreadyEnrolled = errors.New("user is already enrolled in course")
var ErrKeyNotFound = errors.New("key not found")
var ErrNotImage = errors.New("not image")
var ErrNotVideo = errors.New("not video")
var ErrFileSize = errors.New("file size error")
var ErrImageNotFound = errors.New("image not found")
