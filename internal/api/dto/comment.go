package dto

import (
	"Rankify/internal/model"
	"time"

	"github.com/jinzhu/copier"
)

type CommentReq struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type CommentDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToCommentDTOs(comments []model.Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(comments))
	for i := range comments {
		c := CommentDTO{}
		_ = copier.Copy(&c, &comments[i])
		out = append(out, c)
	}
	return out
}
