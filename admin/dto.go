package admin

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goalkit/splash-server/domain"
	"github.com/goalkit/splash-server/images"
)

const ownerHeader = "X-Admin-Id"

type createRequest struct {
	OwnerId     string `json:"ownerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r createRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OwnerId, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
	)
}

type updateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r updateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
	)
}

type publicationView struct {
	Id          string `json:"id"`
	OwnerId     string `json:"ownerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `json:"is_active"`
	PublishedAt int64  `json:"publishedAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type listResponse struct {
	Publications []publicationView `json:"publications"`
	Pagination   pagination        `json:"pagination"`
}

type createResponse struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `json:"is_active"`
	Message     string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type toggleResponse struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toView(pub domain.Publication) publicationView {
	return publicationView{
		Id:          pub.Id.Hex(),
		OwnerId:     pub.OwnerId,
		Title:       pub.Title,
		Description: pub.Description,
		Image:       images.Resolve(pub.Image),
		IsActive:    pub.IsActive,
		PublishedAt: pub.PublishedAt,
		UpdatedAt:   pub.UpdatedAt,
	}
}
