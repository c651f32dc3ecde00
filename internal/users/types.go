package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account owned by the external auth service. This service only
// reads users.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	DisplayName string             `bson:"display_name" json:"displayName"`
	Avatar      string             `bson:"avatar" json:"avatar"`
	Bio         string             `bson:"bio" json:"bio"`
	BlogTitle   string             `bson:"blog_title" json:"blogTitle"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// publicFields never includes credentials stored by the auth service.
var publicFields = []string{"username", "display_name", "avatar", "bio", "blog_title", "created_at"}
