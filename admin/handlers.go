package admin

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/images"
	"github.com/goalkit/splash-server/publication/publicationrepo"
	"github.com/goalkit/splash-server/store"
)

const defaultPageLimit = 10

func (s *adminServer) list(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = defaultPageLimit
	}
	pubs, total, err := s.publication.List(c.Request().Context(), page, limit, c.QueryParam("search"))
	if err != nil {
		return s.respondErr(c, err)
	}
	views := make([]publicationView, len(pubs))
	for i, pub := range pubs {
		views[i] = toView(pub)
	}
	return c.JSON(http.StatusOK, listResponse{
		Publications: views,
		Pagination: pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

func (s *adminServer) create(c echo.Context) error {
	req := createRequest{
		OwnerId:     c.Request().Header.Get(ownerHeader),
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: c.FormValue("description"),
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "image is required"})
	}
	file, src, err := uploadFile(fh)
	if err != nil {
		return s.respondErr(c, err)
	}
	defer func() {
		_ = src.Close()
	}()

	pub, err := s.publication.Create(c.Request().Context(), req.OwnerId, req.Title, req.Description, file, fh.Header.Get("Content-Type"))
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, createResponse{
		Id:          pub.Id.Hex(),
		Title:       pub.Title,
		Description: pub.Description,
		Image:       images.Resolve(pub.Image),
		// the legacy admin UI expects the flag raised in the create response
		// even though the stored row starts inactive
		IsActive: true,
		Message:  "publication created",
	})
}

func (s *adminServer) update(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "publication not found"})
	}
	req := updateRequest{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: c.FormValue("description"),
	}
	if err = req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	var file *store.File
	var mimeType string
	if fh, ferr := c.FormFile("image"); ferr == nil {
		f, src, uerr := uploadFile(fh)
		if uerr != nil {
			return s.respondErr(c, uerr)
		}
		defer func() {
			_ = src.Close()
		}()
		file = &f
		mimeType = fh.Header.Get("Content-Type")
	}
	if err = s.publication.Update(c.Request().Context(), id, req.Title, req.Description, file, mimeType); err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "publication updated"})
}

func (s *adminServer) delete(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "publication not found"})
	}
	if err = s.publication.Delete(c.Request().Context(), id); err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "publication deleted"})
}

func (s *adminServer) toggle(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "publication not found"})
	}
	isActive, err := s.publication.Toggle(c.Request().Context(), id)
	if err != nil {
		return s.respondErr(c, err)
	}
	msg := "publication deactivated"
	if isActive {
		msg = "publication activated"
	}
	return c.JSON(http.StatusOK, toggleResponse{IsActive: isActive, Message: msg})
}

func uploadFile(fh *multipart.FileHeader) (file store.File, src multipart.File, err error) {
	if fh.Size > images.MaxUploadSize {
		return store.File{}, nil, images.ErrPayloadTooLarge
	}
	if src, err = fh.Open(); err != nil {
		return store.File{}, nil, fmt.Errorf("open upload: %w", err)
	}
	return store.File{
		Name:        fh.Filename,
		ContentSize: int(fh.Size),
		Reader:      src,
	}, src, nil
}

func (s *adminServer) respondErr(c echo.Context, err error) error {
	var verrs validation.Errors
	switch {
	case errors.Is(err, publicationrepo.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, publicationrepo.ErrValidation),
		errors.Is(err, images.ErrUnsupportedMedia),
		errors.Is(err, images.ErrPayloadTooLarge),
		errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Error("admin request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
