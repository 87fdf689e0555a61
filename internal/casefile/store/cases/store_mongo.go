package cases

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

// CollectionName is the MongoDB collection holding cases.
const CollectionName = "cases"

// caseDoc holds the structure for the cases collection. Victim references
// are stored as id strings, never embedded documents.
type caseDoc struct {
	ID          string             `bson:"_id"`
	Order       primitive.ObjectID `bson:"order"`
	Detective   string             `bson:"detective"`
	Weapon      string             `bson:"weapon"`
	Description string             `bson:"description,omitempty"`
	Suspect     string             `bson:"suspect,omitempty"`
	Victims     []string           `bson:"victims"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// MongoStore persists cases in MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo constructs a MongoDB-backed case store.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the indexes used by this store.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order", Value: 1}}},
		{Keys: bson.D{{Key: "victims", Value: 1}}},
	})
	if err != nil {
		return pmongo.WrapErr("create case indexes", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, c *models.Case) error {
	doc := toDoc(c)
	doc.Order = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create case: %w", sentinel.ErrConflict)
		}
		return pmongo.WrapErr("create case", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	var doc caseDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": caseID.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, pmongo.WrapErr("find case by id", err)
	}
	return fromDoc(doc)
}

func (s *MongoStore) FindByIDs(ctx context.Context, caseIDs []id.CaseID) ([]*models.Case, error) {
	if len(caseIDs) == 0 {
		return []*models.Case{}, nil
	}
	return s.find(ctx, "find cases by ids", bson.M{"_id": bson.M{"$in": id.CaseIDStrings(caseIDs)}})
}

func (s *MongoStore) FindAll(ctx context.Context) ([]*models.Case, error) {
	return s.find(ctx, "list cases", bson.M{})
}

func (s *MongoStore) Update(ctx context.Context, c *models.Case) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": c.ID.String()}, bson.M{"$set": bson.M{
		"detective":   c.Detective,
		"weapon":      c.Weapon,
		"description": c.Description,
		"suspect":     c.Suspect,
		"victims":     id.VictimIDStrings(c.Victims),
		"updatedAt":   c.UpdatedAt,
	}})
	if err != nil {
		return pmongo.WrapErr("update case", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, caseID id.CaseID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": caseID.String()})
	if err != nil {
		return pmongo.WrapErr("delete case", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// AddVictim uses $addToSet so repeating the add never duplicates the id.
func (s *MongoStore) AddVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": caseID.String()}, bson.M{
		"$addToSet": bson.M{"victims": victimID.String()},
		"$set":      bson.M{"updatedAt": now},
	})
	if err != nil {
		return pmongo.WrapErr("add case victim", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) RemoveVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": caseID.String()}, bson.M{
		"$pull": bson.M{"victims": victimID.String()},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return pmongo.WrapErr("remove case victim", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) find(ctx context.Context, action string, filter bson.M) ([]*models.Case, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, pmongo.WrapErr(action, err)
	}
	var docs []caseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pmongo.WrapErr(action, err)
	}
	out := make([]*models.Case, 0, len(docs))
	for _, doc := range docs {
		c, err := fromDoc(doc)
		if err != nil {
			return nil, pmongo.WrapErr(action, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func toDoc(c *models.Case) caseDoc {
	return caseDoc{
		ID:          c.ID.String(),
		Detective:   c.Detective,
		Weapon:      c.Weapon,
		Description: c.Description,
		Suspect:     c.Suspect,
		Victims:     id.VictimIDStrings(c.Victims),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromDoc(doc caseDoc) (*models.Case, error) {
	caseID, err := id.ParseCaseID(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("decode case %q: %v", doc.ID, err)
	}
	victims, err := id.ParseVictimIDs(doc.Victims)
	if err != nil {
		return nil, fmt.Errorf("decode case %q: %v", doc.ID, err)
	}
	if victims == nil {
		victims = []id.VictimID{}
	}
	return &models.Case{
		ID:          caseID,
		Detective:   doc.Detective,
		Weapon:      doc.Weapon,
		Description: doc.Description,
		Suspect:     doc.Suspect,
		Victims:     victims,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}
