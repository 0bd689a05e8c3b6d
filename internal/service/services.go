package service

import (
	"LearnLoom/internal/service/catalog"
	"LearnLoom/internal/service/editor"
	"LearnLoom/internal/service/progress"
	"LearnLoom/internal/service/quiz"
	"LearnLoom/internal/service/reward"
)

type Collection struct {
	*catalog.CatalogService
	*editor.EditorService
	*progress.ProgressService
	*quiz.QuizService
	*reward.RewardService
}
