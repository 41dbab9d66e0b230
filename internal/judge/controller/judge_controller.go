package controller

import (
	"github.com/Sushanth-77/oj-project/internal/judge/model"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/profile"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/runner"
	"github.com/Sushanth-77/oj-project/internal/judge/service"
	appErr "github.com/Sushanth-77/oj-project/pkg/errors"
	"github.com/Sushanth-77/oj-project/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultMaxSourceBytes      = 256 * 1024
	defaultMaxCustomInputBytes = 64 * 1024
)

// JudgeController handles submission, status, and custom-run requests.
type JudgeController struct {
	dispatcher          *service.Dispatcher
	runner              runner.Runner
	maxSourceBytes      int
	maxCustomInputBytes int
}

// NewJudgeController creates a new controller.
func NewJudgeController(dispatcher *service.Dispatcher, r runner.Runner) *JudgeController {
	return &JudgeController{
		dispatcher:          dispatcher,
		runner:              r,
		maxSourceBytes:      defaultMaxSourceBytes,
		maxCustomInputBytes: defaultMaxCustomInputBytes,
	}
}

// RegisterRoutes mounts the judge API.
func (h *JudgeController) RegisterRoutes(rg *gin.RouterGroup) {
	judge := rg.Group("/judge")
	judge.POST("/submissions", h.Submit)
	judge.GET("/submissions/:id", h.GetStatus)
	judge.POST("/run", h.Run)
}

type submitRequest struct {
	ProblemCode string `json:"problem_code" binding:"required"`
	Language    string `json:"language" binding:"required"`
	SourceCode  string `json:"source_code" binding:"required"`
}

type submitResponse struct {
	SubmissionID string `json:"submission_id"`
}

// Submit enqueues a submission and returns its id for polling.
func (h *JudgeController) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.SourceCode) > h.maxSourceBytes {
		response.Error(c, appErr.New(appErr.CodeTooLarge))
		return
	}
	if _, err := profile.ParseLanguage(req.Language); err != nil {
		response.Error(c, appErr.Wrap(err, appErr.LanguageNotSupported))
		return
	}

	id, err := h.dispatcher.Submit(c.Request.Context(), model.JudgeRequest{
		SubmissionID: uuid.NewString(),
		ProblemCode:  req.ProblemCode,
		Language:     req.Language,
		SourceCode:   req.SourceCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, submitResponse{SubmissionID: id})
}

// GetStatus returns the status snapshot for one submission.
func (h *JudgeController) GetStatus(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		response.BadRequest(c, "invalid submission id")
		return
	}
	status, err := h.dispatcher.Status(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// Run executes user code once against a custom input, synchronously.
func (h *JudgeController) Run(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.SourceCode == "" {
		response.Error(c, appErr.ValidationError("source_code", "required"))
		return
	}
	if len(req.SourceCode) > h.maxSourceBytes {
		response.Error(c, appErr.New(appErr.CodeTooLarge))
		return
	}
	if len(req.Stdin) > h.maxCustomInputBytes {
		response.Error(c, appErr.New(appErr.CustomInputTooLarge))
		return
	}
	lang, err := profile.ParseLanguage(req.Language)
	if err != nil {
		response.Error(c, appErr.Wrap(err, appErr.LanguageNotSupported))
		return
	}

	out, err := h.runner.RunOnce(c.Request.Context(), runner.RunOnceRequest{
		SubmissionID: uuid.NewString(),
		Language:     lang,
		Source:       req.SourceCode,
		Stdin:        req.Stdin,
	})
	if err != nil {
		response.Error(c, appErr.Wrap(err, appErr.CustomTestFailed))
		return
	}
	response.Success(c, model.RunResponse{
		Status:   string(out.Status),
		Phase:    string(out.Phase),
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		TimeMs:   out.TimeMs,
	})
}
