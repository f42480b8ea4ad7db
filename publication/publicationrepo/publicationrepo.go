package publicationrepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goalkit/splash-server/db"
	"github.com/goalkit/splash-server/domain"
)

const CName = "publication.repo"

var (
	ErrNotFound   = errors.New("publication not found")
	ErrValidation = errors.New("validation failed")
)

func New() PublicationRepo {
	return new(publicationRepo)
}

// UpdateFields is a partial content update; nil fields are left untouched.
// The active flag is not updatable here, only through SetActiveExclusive.
type UpdateFields struct {
	Title       *string
	Description *string
	Image       *string
}

type PublicationRepo interface {
	Create(ctx context.Context, pub domain.Publication) (created domain.Publication, err error)
	Update(ctx context.Context, id primitive.ObjectID, fields UpdateFields) (err error)
	// SetActiveExclusive atomically sets every row inactive and then, when id
	// is non-nil, sets that row active. Runs as a single transaction so that
	// at most one row is ever observed active.
	SetActiveExclusive(ctx context.Context, id *primitive.ObjectID) (err error)
	GetById(ctx context.Context, id primitive.ObjectID) (pub domain.Publication, err error)
	// GetActive returns the active publication, preferring the most recently
	// published row should a transient duplicate exist.
	GetActive(ctx context.Context) (pub domain.Publication, err error)
	List(ctx context.Context, page, limit int64, searchTitle string) (pubs []domain.Publication, total int64, err error)
	Delete(ctx context.Context, id primitive.ObjectID) (err error)
	app.ComponentRunnable
}

var publicationIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "isActive", Value: 1},
		},
	},
	{
		Keys: bson.D{
			{Key: "publishedAt", Value: -1},
		},
	},
}

type publicationRepo struct {
	db   db.Database
	coll *mongo.Collection
}

func (p *publicationRepo) Name() (name string) {
	return CName
}

func (p *publicationRepo) Init(a *app.App) (err error) {
	p.db = a.MustComponent(db.CName).(db.Database)
	p.coll = p.db.Db().Collection("publication")
	return
}

func (p *publicationRepo) Run(ctx context.Context) (err error) {
	return ensureIndexes(ctx, p.coll, publicationIndexes...)
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes ...mongo.IndexModel) (err error) {
	existingIndexes, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		return
	}
	if len(existingIndexes) <= 1 {
		_, err = coll.Indexes().CreateMany(ctx, indexes)
	}
	return
}

func (p *publicationRepo) Create(ctx context.Context, pub domain.Publication) (created domain.Publication, err error) {
	if strings.TrimSpace(pub.Title) == "" {
		return domain.Publication{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if pub.Image == "" {
		return domain.Publication{}, fmt.Errorf("%w: image is required", ErrValidation)
	}
	now := time.Now().Unix()
	pub.Id = primitive.NewObjectID()
	pub.PublishedAt = now
	pub.UpdatedAt = now
	pub.IsActive = false
	if _, err = p.coll.InsertOne(ctx, pub); err != nil {
		return domain.Publication{}, err
	}
	return pub, nil
}

func (p *publicationRepo) Update(ctx context.Context, id primitive.ObjectID, fields UpdateFields) (err error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().Unix()}}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
		set = append(set, bson.E{Key: "title", Value: *fields.Title})
	}
	if fields.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *fields.Description})
	}
	if fields.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *fields.Image})
	}
	res, err := p.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return
}

func (p *publicationRepo) SetActiveExclusive(ctx context.Context, id *primitive.ObjectID) (err error) {
	now := time.Now().Unix()
	return p.db.Tx(ctx, func(txCtx mongo.SessionContext) (err error) {
		filter := bson.D{{Key: "isActive", Value: true}}
		if id != nil {
			filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: *id}}})
		}
		if _, err = p.coll.UpdateMany(txCtx, filter, bson.D{{Key: "$set", Value: bson.D{
			{Key: "isActive", Value: false},
			{Key: "updatedAt", Value: now},
		}}}); err != nil {
			return
		}
		if id == nil {
			return
		}
		res, err := p.coll.UpdateOne(txCtx, bson.D{{Key: "_id", Value: *id}}, bson.D{{Key: "$set", Value: bson.D{
			{Key: "isActive", Value: true},
			{Key: "updatedAt", Value: now},
		}}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// aborts the transaction: the deactivations roll back too
			return ErrNotFound
		}
		return nil
	})
}

func (p *publicationRepo) GetById(ctx context.Context, id primitive.ObjectID) (pub domain.Publication, err error) {
	if err = p.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&pub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Publication{}, ErrNotFound
		}
		return domain.Publication{}, err
	}
	return
}

func (p *publicationRepo) GetActive(ctx context.Context) (pub domain.Publication, err error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "_id", Value: -1}})
	if err = p.coll.FindOne(ctx, bson.D{{Key: "isActive", Value: true}}, opts).Decode(&pub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Publication{}, ErrNotFound
		}
		return domain.Publication{}, err
	}
	return
}

func (p *publicationRepo) List(ctx context.Context, page, limit int64, searchTitle string) (pubs []domain.Publication, total int64, err error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	filter := bson.D{}
	if searchTitle != "" {
		filter = append(filter, bson.E{Key: "title", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(searchTitle)},
			{Key: "$options", Value: "i"},
		}})
	}
	if total, err = p.coll.CountDocuments(ctx, filter); err != nil {
		return
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := p.coll.Find(ctx, filter, opts)
	if err != nil {
		return
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	for cur.Next(ctx) {
		var pub domain.Publication
		if err = cur.Decode(&pub); err != nil {
			return nil, 0, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, total, cur.Err()
}

func (p *publicationRepo) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	res, err := p.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return
}

func (p *publicationRepo) Close(ctx context.Context) (err error) {
	return
}
