package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo maps each document collection to a MongoDB collection keyed by _id.
type Mongo struct {
	db *mongo.Database
}

// NewMongo creates a Store on top of a MongoDB database handle.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Get(ctx context.Context, collection, id string, dst any) error {
	raw, err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRaw(id, raw, dst)
}

func (m *Mongo) Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error {
	fields, err := toBSON(doc)
	if err != nil {
		return err
	}

	coll := m.db.Collection(collection)
	filter := bson.M{"_id": id}
	if applySetOptions(opts).merge {
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": fields}, options.Update().SetUpsert(true))
	} else {
		_, err = coll.ReplaceOne(ctx, filter, fields, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, collection, id string, doc any) error {
	fields, err := toBSON(doc)
	if err != nil {
		return err
	}

	fields = append(bson.D{{Key: "_id", Value: id}}, fields...)
	if _, err := m.db.Collection(collection).InsertOne(ctx, fields); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, collection string, doc any) (string, error) {
	id := newID()
	if err := m.Insert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Mongo) List(ctx context.Context, collection string) ([]Snapshot, error) {
	cur, err := m.db.Collection(collection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []Snapshot
	for cur.Next(ctx) {
		id, _ := cur.Current.Lookup("_id").StringValueOK()
		data, err := bson.MarshalExtJSON(cur.Current, false, false)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		out = append(out, Snapshot{ID: id, Data: data})
	}
	return out, cur.Err()
}

// toBSON converts a document to bson through its JSON form so the json tags
// of the model types govern field names in every backend.
func toBSON(doc any) (bson.D, error) {
	data, _, err := encode(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.D
	if err := bson.UnmarshalExtJSON(data, false, &fields); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return fields, nil
}

func decodeRaw(id string, raw bson.Raw, dst any) error {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	return Snapshot{ID: id, Data: data}.Decode(dst)
}
