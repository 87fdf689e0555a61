package victims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"casefile/internal/casefile/models"
	pmongo "casefile/internal/platform/mongo"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// CollectionName is the MongoDB collection holding victims.
const CollectionName = "victims"

// victimDoc holds the structure for the victims collection. Order is an
// ObjectID assigned at insert so listings follow insertion order.
type victimDoc struct {
	ID           string             `bson:"_id"`
	Order        primitive.ObjectID `bson:"order"`
	Name         string             `bson:"name"`
	Age          int                `bson:"age"`
	Family       string             `bson:"family"`
	MurderMethod string             `bson:"murderMethod"`
	CaseID       *string            `bson:"caseId,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// MongoStore persists victims in MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo constructs a MongoDB-backed victim store.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the lookup indexes used by this store.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "family", Value: 1}, {Key: "order", Value: 1}}},
		{Keys: bson.D{{Key: "caseId", Value: 1}}},
		{Keys: bson.D{{Key: "order", Value: 1}}},
	})
	if err != nil {
		return pmongo.WrapErr("create victim indexes", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, victim *models.Victim) error {
	doc := toDoc(victim)
	doc.Order = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create victim: %w", sentinel.ErrConflict)
		}
		return pmongo.WrapErr("create victim", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	return s.findOne(ctx, "find victim by id", bson.M{"_id": victimID.String()}, nil)
}

func (s *MongoStore) FindByIDs(ctx context.Context, victimIDs []id.VictimID) ([]*models.Victim, error) {
	if len(victimIDs) == 0 {
		return []*models.Victim{}, nil
	}
	return s.find(ctx, "find victims by ids", bson.M{"_id": bson.M{"$in": id.VictimIDStrings(victimIDs)}})
}

func (s *MongoStore) FindAll(ctx context.Context) ([]*models.Victim, error) {
	return s.find(ctx, "list victims", bson.M{})
}

func (s *MongoStore) FindByNameAndFamily(ctx context.Context, name, family string) (*models.Victim, error) {
	return s.findOne(ctx, "find victim by name and family",
		bson.M{"name": name, "family": family},
		options.FindOne().SetSort(bson.D{{Key: "order", Value: 1}}))
}

func (s *MongoStore) Update(ctx context.Context, victim *models.Victim) error {
	set := bson.M{
		"name":         victim.Name,
		"age":          victim.Age,
		"family":       victim.Family,
		"murderMethod": victim.MurderMethod,
		"updatedAt":    victim.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if victim.HasCase() {
		set["caseId"] = victim.CaseID.String()
	} else {
		update["$unset"] = bson.M{"caseId": ""}
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": victim.ID.String()}, update)
	if err != nil {
		return pmongo.WrapErr("update victim", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, victimID id.VictimID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": victimID.String()})
	if err != nil {
		return pmongo.WrapErr("delete victim", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetCase(ctx context.Context, victimIDs []id.VictimID, caseID id.CaseID, now time.Time) error {
	if len(victimIDs) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": id.VictimIDStrings(victimIDs)}},
		bson.M{"$set": bson.M{"caseId": caseID.String(), "updatedAt": now}},
	)
	if err != nil {
		return pmongo.WrapErr("set victim case", err)
	}
	return nil
}

func (s *MongoStore) ClearCase(ctx context.Context, victimIDs []id.VictimID, now time.Time) error {
	if len(victimIDs) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": id.VictimIDStrings(victimIDs)}},
		bson.M{"$unset": bson.M{"caseId": ""}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return pmongo.WrapErr("clear victim case", err)
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, action string, filter bson.M, opts *options.FindOneOptions) (*models.Victim, error) {
	if opts == nil {
		opts = options.FindOne()
	}
	var doc victimDoc
	if err := s.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, pmongo.WrapErr(action, err)
	}
	return fromDoc(doc)
}

func (s *MongoStore) find(ctx context.Context, action string, filter bson.M) ([]*models.Victim, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, pmongo.WrapErr(action, err)
	}
	var docs []victimDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pmongo.WrapErr(action, err)
	}
	out := make([]*models.Victim, 0, len(docs))
	for _, doc := range docs {
		v, err := fromDoc(doc)
		if err != nil {
			return nil, pmongo.WrapErr(action, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func toDoc(v *models.Victim) victimDoc {
	doc := victimDoc{
		ID:           v.ID.String(),
		Name:         v.Name,
		Age:          v.Age,
		Family:       v.Family,
		MurderMethod: v.MurderMethod,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.HasCase() {
		cid := v.CaseID.String()
		doc.CaseID = &cid
	}
	return doc
}

func fromDoc(doc victimDoc) (*models.Victim, error) {
	victimID, err := id.ParseVictimID(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("decode victim %q: %v", doc.ID, err)
	}
	v := &models.Victim{
		ID:           victimID,
		Name:         doc.Name,
		Age:          doc.Age,
		Family:       doc.Family,
		MurderMethod: doc.MurderMethod,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if doc.CaseID != nil && *doc.CaseID != "" {
		caseID, err := id.ParseCaseID(*doc.CaseID)
		if err != nil {
			return nil, fmt.Errorf("decode victim %q: %v", doc.ID, err)
		}
		v.CaseID = &caseID
	}
	return v, nil
}
