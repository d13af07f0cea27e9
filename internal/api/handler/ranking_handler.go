package handler

import (
	"Rankify/internal/api/dto"
	"Rankify/internal/model"
	"Rankify/internal/pkg/response"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
)

type RankingHandler struct {
	rankingSvc service.RankingService
	mediaSvc   service.MediaService
}

func NewRankingHandler(rankingSvc service.RankingService, mediaSvc service.MediaService) *RankingHandler {
	return &RankingHandler{rankingSvc: rankingSvc, mediaSvc: mediaSvc}
}

func (s *RankingHandler) ListRecent(c *gin.Context) {
	var q dto.PageQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.rankingSvc.ListRecent(c.Request.Context(), pageRequest(q))
	s.renderPage(c, page, err)
}

func (s *RankingHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.rankingSvc.SearchByTitlePrefix(c.Request.Context(), q.Q, pageRequest(q.PageQuery))
	s.renderPage(c, page, err)
}

// FilterByCategory category 为空时等同于最新列表
func (s *RankingHandler) FilterByCategory(c *gin.Context) {
	var q dto.CategoryQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}

	var category *model.Category
	if q.Category != "" {
		parsed, err := model.ParseCategory(q.Category)
		if err != nil {
			response.Error(c, err)
			return
		}
		category = &parsed
	}

	page, err := s.rankingSvc.FilterByCategory(c.Request.Context(), category, pageRequest(q.PageQuery))
	s.renderPage(c, page, err)
}

func (s *RankingHandler) ListByOwner(c *gin.Context) {
	var q dto.PageQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	page, err := s.rankingSvc.ListByOwner(c.Request.Context(), c.Param("user_id"), pageRequest(q))
	s.renderPage(c, page, err)
}

func (s *RankingHandler) GetRanking(c *gin.Context) {
	ranking, err := s.rankingSvc.GetRanking(c.Request.Context(), c.Param("ranking_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToRankingDTO(ranking, s.mediaSvc.ResolveRef, true))
}

func (s *RankingHandler) CreateRanking(c *gin.Context) {
	userID := c.GetString("user_id")

	input, err := s.bindRanking(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ranking, err := s.rankingSvc.CreateRanking(c.Request.Context(), userID, input)
	s.renderRanking(c, ranking, err)
}

func (s *RankingHandler) UpdateRanking(c *gin.Context) {
	userID := c.GetString("user_id")

	input, err := s.bindRanking(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ranking, err := s.rankingSvc.UpdateRanking(c.Request.Context(), c.Param("ranking_id"), userID, input)
	s.renderRanking(c, ranking, err)
}

func (s *RankingHandler) InsertItem(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.InsertItemReq
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	ranking, err := s.rankingSvc.InsertItem(c.Request.Context(), c.Param("ranking_id"), userID, req.Item.ToModel(), req.At)
	s.renderRanking(c, ranking, err)
}

func (s *RankingHandler) MoveItem(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.MoveItemReq
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	ranking, err := s.rankingSvc.MoveItem(c.Request.Context(), c.Param("ranking_id"), userID, c.Param("item_id"), *req.To)
	s.renderRanking(c, ranking, err)
}

func (s *RankingHandler) DeleteRanking(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := s.rankingSvc.DeleteRanking(c.Request.Context(), c.Param("ranking_id"), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *RankingHandler) bindRanking(c *gin.Context) (service.RankingInput, error) {
	var req dto.RankingReq
	if err := bindJSON(c, &req); err != nil {
		return service.RankingInput{}, err
	}
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		return service.RankingInput{}, err
	}
	return service.RankingInput{
		Title:    req.Title,
		Category: category,
		Items:    req.ToItems(),
		Version:  req.Version,
	}, nil
}

func (s *RankingHandler) renderRanking(c *gin.Context, ranking *model.Ranking, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToRankingDTO(ranking, s.mediaSvc.ResolveRef, false))
}

func (s *RankingHandler) renderPage(c *gin.Context, page *service.Page, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToRankingPageDTO(page.Items, page.NextCursor, page.HasMore, s.mediaSvc.ResolveRef))
}
