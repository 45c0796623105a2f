package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/ports"
)

// CommentsHandler serves the comment board.
type CommentsHandler struct {
	comments ports.CommentsAPI
	log      zerolog.Logger
}

func NewCommentsHandler(comments ports.CommentsAPI, log zerolog.Logger) *CommentsHandler {
	return &CommentsHandler{comments: comments, log: log}
}

type commentsResponse struct {
	Comments json.RawMessage `json:"comments,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// List renders the comment board, honouring the search and date filters.
func (h *CommentsHandler) List(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := ports.CommentFilter{
		SearchTerm: c.QueryParam("searchTerm"),
		StartDate:  c.QueryParam("startDate"),
		EndDate:    c.QueryParam("endDate"),
		Limit:      limit,
	}

	comments, err := h.comments.Comments(c.Request().Context(), token, filter)
	if err != nil {
		h.log.Warn().Err(err).Msg("comment listing failed")
		return c.JSON(http.StatusOK, commentsResponse{Error: fetchMessage(err)})
	}
	return c.JSON(http.StatusOK, commentsResponse{Comments: comments})
}

type commentRequest struct {
	Text string `json:"texto" validate:"required"`
}

// Create posts a new comment attributed to the current user.
func (h *CommentsHandler) Create(c echo.Context) error {
	user, token, err := requireUser(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.comments.CreateComment(c.Request().Context(), token, req.Text, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update edits an existing comment.
func (h *CommentsHandler) Update(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.comments.UpdateComment(c.Request().Context(), token, commentID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a comment.
func (h *CommentsHandler) Delete(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id")
	}

	if err := h.comments.DeleteComment(c.Request().Context(), token, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
