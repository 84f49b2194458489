package controller

import (
	"errors"

	"gamified_ds_backend/internal/model"
	"gamified_ds_backend/internal/service"
	"gamified_ds_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
	ProgressService    *service.ProgressService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService, progressService *service.ProgressService) *LeaderboardController {
	return &LeaderboardController{
		LeaderboardService: leaderboardService,
		ProgressService:    progressService,
	}
}

// GetLeaderboard godoc
// @Summary Get the ranked leaderboard
// @Description Rank all players by total score, or by one topic's overall score
// @Tags leaderboard
// @Produce  json
// @Param   topic query string false "Topic filter" Enums(Stack, Array)
// @Success 200 {object} util.Response{data=service.Leaderboard} "Success"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	topic := model.Topic(ctx.Query("topic"))

	board, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), topic)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, board)
}

// UpdateScoreRequest is a quiz result submission. Score is a pointer so that a
// legitimate zero score still passes the required check; a missing score is a
// validation error.
// swagger:model UpdateScoreRequest
type UpdateScoreRequest struct {
	Topic     string `json:"topic" binding:"required"`
	Score     *int   `json:"score" binding:"required,min=0"`
	MaxScore  *int   `json:"maxScore" binding:"omitempty,min=1"`
	TimeTaken *int   `json:"timeTaken" binding:"omitempty,min=0"`
}

// UpdateScore godoc
// @Summary Submit a quiz result
// @Description Append a quiz attempt, award XP (10 per point) and recompute scores
// @Tags leaderboard
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateScoreRequest true "Quiz result"
// @Success 200 {object} util.Response{data=service.Aggregates} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/leaderboard/update-score [post]
func (c *LeaderboardController) UpdateScore(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateScoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrTopicAndScoreRequired.Error())
		return
	}

	sub := service.QuizSubmission{
		Topic:     req.Topic,
		Score:     *req.Score,
		MaxScore:  10,
		TimeTaken: 0,
	}
	if req.MaxScore != nil {
		sub.MaxScore = *req.MaxScore
	}
	if req.TimeTaken != nil {
		sub.TimeTaken = *req.TimeTaken
	}

	aggregates, err := c.ProgressService.SubmitQuizResult(ctx.Request.Context(), user.UserID, sub)
	if err != nil {
		if errors.Is(err, util.ErrTopicAndScoreRequired) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, aggregates)
}

// swagger:model UpdateMissionScoreRequest
type UpdateMissionScoreRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Score    *int   `json:"score" binding:"required,min=0"`
	MaxScore *int   `json:"maxScore" binding:"omitempty,min=1"`
}

// UpdateMissionScore godoc
// @Summary Submit a story mission result
// @Description Append a mission completion, award XP (10 per point) and recompute scores
// @Tags leaderboard
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateMissionScoreRequest true "Mission result"
// @Success 200 {object} util.Response{data=service.Aggregates} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/leaderboard/update-mission-score [post]
func (c *LeaderboardController) UpdateMissionScore(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateMissionScoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrTopicAndScoreRequired.Error())
		return
	}

	sub := service.MissionSubmission{
		Topic:    req.Topic,
		Score:    *req.Score,
		MaxScore: 10,
	}
	if req.MaxScore != nil {
		sub.MaxScore = *req.MaxScore
	}

	aggregates, err := c.ProgressService.SubmitMissionResult(ctx.Request.Context(), user.UserID, sub)
	if err != nil {
		if errors.Is(err, util.ErrTopicAndScoreRequired) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, aggregates)
}

// GetMyProgress godoc
// @Summary Get the authenticated player's progress
// @Description Aggregated scores, XP, level, streak and per-topic counts
// @Tags leaderboard
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProgressData} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/leaderboard/my-progress [get]
func (c *LeaderboardController) GetMyProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.GetProgress(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}
