package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Publication is a splash announcement shown on the public site. At most one
// publication is active at any time; the flag is maintained exclusively by
// publication.Service.
type Publication struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerId     string             `json:"ownerId" bson:"ownerId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Image       string             `json:"image" bson:"image"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	PublishedAt int64              `json:"publishedAt" bson:"publishedAt"`
	UpdatedAt   int64              `json:"updatedAt" bson:"updatedAt"`
}
