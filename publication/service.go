package publication

import (
	"context"
	"fmt"
	"strings"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/domain"
	"github.com/goalkit/splash-server/images"
	"github.com/goalkit/splash-server/publication/publicationrepo"
	"github.com/goalkit/splash-server/store"
)

const CName = "publication.service"

var log = logger.NewNamed(CName)

func New() Service {
	return new(publicationService)
}

// Service owns the splash publication lifecycle. It is the only caller of
// SetActiveExclusive, so the single-active invariant cannot be bypassed by
// new call sites.
type Service interface {
	app.ComponentRunnable

	Create(ctx context.Context, ownerId, title, description string, image store.File, mimeType string) (pub domain.Publication, err error)
	Update(ctx context.Context, id primitive.ObjectID, title, description string, image *store.File, mimeType string) (err error)
	Delete(ctx context.Context, id primitive.ObjectID) (err error)
	Activate(ctx context.Context, id primitive.ObjectID) (err error)
	Deactivate(ctx context.Context, id primitive.ObjectID) (err error)
	Toggle(ctx context.Context, id primitive.ObjectID) (isActive bool, err error)
	GetById(ctx context.Context, id primitive.ObjectID) (pub domain.Publication, err error)
	GetActive(ctx context.Context) (pub domain.Publication, err error)
	List(ctx context.Context, page, limit int64, searchTitle string) (pubs []domain.Publication, total int64, err error)
}

type publicationService struct {
	repo   publicationrepo.PublicationRepo
	images images.Images
	cache  *activeCache
}

func (s *publicationService) Init(a *app.App) (err error) {
	s.repo = a.MustComponent(publicationrepo.CName).(publicationrepo.PublicationRepo)
	s.images = a.MustComponent(images.CName).(images.Images)
	s.cache = newActiveCache(a.MustComponent("config").(configGetter).GetPublication().Redis)
	return
}

func (s *publicationService) Name() (name string) {
	return CName
}

func (s *publicationService) Run(ctx context.Context) (err error) {
	return
}

func (s *publicationService) Create(ctx context.Context, ownerId, title, description string, image store.File, mimeType string) (pub domain.Publication, err error) {
	if ownerId == "" {
		return domain.Publication{}, fmt.Errorf("%w: owner is required", publicationrepo.ErrValidation)
	}
	if strings.TrimSpace(title) == "" {
		return domain.Publication{}, fmt.Errorf("%w: title is required", publicationrepo.ErrValidation)
	}
	if image.Name == "" || image.Reader == nil {
		return domain.Publication{}, fmt.Errorf("%w: image is required", publicationrepo.ErrValidation)
	}
	storedName, err := s.images.Accept(ctx, image, mimeType)
	if err != nil {
		return domain.Publication{}, err
	}
	// the new row starts inactive; deactivating everything first keeps the
	// invariant even if older rows ended up active out of band
	if err = s.repo.SetActiveExclusive(ctx, nil); err != nil {
		s.images.Remove(ctx, storedName)
		return domain.Publication{}, err
	}
	if pub, err = s.repo.Create(ctx, domain.Publication{
		OwnerId:     ownerId,
		Title:       title,
		Description: description,
		Image:       storedName,
	}); err != nil {
		s.images.Remove(ctx, storedName)
		return domain.Publication{}, err
	}
	s.cache.invalidate(ctx)
	log.Info("publication created", zap.String("id", pub.Id.Hex()), zap.String("owner", ownerId))
	return pub, nil
}

func (s *publicationService) Update(ctx context.Context, id primitive.ObjectID, title, description string, image *store.File, mimeType string) (err error) {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", publicationrepo.ErrValidation)
	}
	current, err := s.repo.GetById(ctx, id)
	if err != nil {
		return
	}
	fields := publicationrepo.UpdateFields{
		Title:       &title,
		Description: &description,
	}
	if image != nil {
		var storedName string
		if storedName, err = s.images.Accept(ctx, *image, mimeType); err != nil {
			return
		}
		// the old asset goes first; losing it is acceptable, blocking the
		// update on its cleanup is not
		s.images.Remove(ctx, current.Image)
		fields.Image = &storedName
	}
	if err = s.repo.Update(ctx, id, fields); err != nil {
		return
	}
	s.cache.invalidate(ctx)
	return
}

func (s *publicationService) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	current, err := s.repo.GetById(ctx, id)
	if err != nil {
		return
	}
	s.images.Remove(ctx, current.Image)
	if err = s.repo.Delete(ctx, id); err != nil {
		return
	}
	s.cache.invalidate(ctx)
	log.Info("publication deleted", zap.String("id", id.Hex()))
	return
}

func (s *publicationService) Activate(ctx context.Context, id primitive.ObjectID) (err error) {
	if err = s.repo.SetActiveExclusive(ctx, &id); err != nil {
		return
	}
	s.cache.invalidate(ctx)
	return
}

func (s *publicationService) Deactivate(ctx context.Context, id primitive.ObjectID) (err error) {
	current, err := s.repo.GetById(ctx, id)
	if err != nil {
		return
	}
	if !current.IsActive {
		return nil
	}
	if err = s.repo.SetActiveExclusive(ctx, nil); err != nil {
		return
	}
	s.cache.invalidate(ctx)
	return
}

func (s *publicationService) Toggle(ctx context.Context, id primitive.ObjectID) (isActive bool, err error) {
	current, err := s.repo.GetById(ctx, id)
	if err != nil {
		return false, err
	}
	if current.IsActive {
		err = s.Deactivate(ctx, id)
	} else {
		err = s.Activate(ctx, id)
	}
	if err != nil {
		return false, err
	}
	return !current.IsActive, nil
}

func (s *publicationService) GetById(ctx context.Context, id primitive.ObjectID) (pub domain.Publication, err error) {
	return s.repo.GetById(ctx, id)
}

func (s *publicationService) GetActive(ctx context.Context) (pub domain.Publication, err error) {
	if pub, ok := s.cache.get(ctx); ok {
		return pub, nil
	}
	if pub, err = s.repo.GetActive(ctx); err != nil {
		return
	}
	s.cache.set(ctx, pub)
	return
}

func (s *publicationService) List(ctx context.Context, page, limit int64, searchTitle string) (pubs []domain.Publication, total int64, err error) {
	return s.repo.List(ctx, page, limit, searchTitle)
}

func (s *publicationService) Close(ctx context.Context) (err error) {
	return s.cache.close()
}
