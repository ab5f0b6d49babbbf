package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ domain.UserRepository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return domain.User{}, translateError(err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := objectIDs(repository.UniqueIDs(ids))
	if len(oids) == 0 {
		return []domain.User{}, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	res := make([]domain.User, len(docs))
	for i := range docs {
		res[i] = docs[i].toDomain()
	}
	return res, nil
}

func (r *userRepository) Insert(ctx context.Context, u *domain.User) error {
	now := repository.Now()
	doc := userDoc{
		ID:          primitive.NewObjectID(),
		Email:       u.Email,
		Handle:      domain.NormalizeHandle(u.Handle),
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	*u = doc.toDomain()
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	oid, ok := objectID(u.ID)
	if !ok {
		return domain.ErrNotFound
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"display_name": u.DisplayName, "updated_at": repository.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return translateError(err)
	}
	*u = doc.toDomain()
	return nil
}
