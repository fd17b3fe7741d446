package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCounter = "posts"

// mongoPost adds the numeric insertion sequence used to break ties when
// several posts share a publication time.
type mongoPost struct {
	post.Post `bson:",inline"`
	Seq       int64 `bson:"seq"`
}

// MongoRepo stores posts in a collection keyed by the string "id" field.
// Ids come from a counters collection shared by all service replicas.
type MongoRepo struct {
	posts    *mongo.Collection
	counters *mongo.Collection
}

var _ Repository = (*MongoRepo)(nil)

// NewMongoRepo ensures the id and listing indexes exist.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	posts := db.Collection("posts")
	_, err := posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "publishedAt", Value: -1}, {Key: "seq", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create post indexes: %w", err)
	}
	return &MongoRepo{posts: posts, counters: db.Collection("counters")}, nil
}

func (m *MongoRepo) NextID(ctx context.Context) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": postsCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", fmt.Errorf("next post id: %w", err)
	}
	return strconv.FormatInt(counter.Seq, 10), nil
}

func (m *MongoRepo) Insert(ctx context.Context, p *post.Post) error {
	// ids handed out by NextID are numeric; anything else sorts first on ties
	seq, _ := strconv.ParseInt(p.ID, 10, 64)
	doc := mongoPost{Post: *p.Clone(), Seq: seq}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := m.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert post %s: %w", p.ID, err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*post.Post, error) {
	var doc mongoPost
	err := m.posts.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, post.ErrNotFound
		}
		return nil, err
	}
	return fromMongo(doc), nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.posts.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*post.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "seq", Value: 1}})
	cur, err := m.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*post.Post{}
	for cur.Next(ctx) {
		var doc mongoPost
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, fromMongo(doc))
	}
	return out, cur.Err()
}

func fromMongo(doc mongoPost) *post.Post {
	p := doc.Post
	// BSON dates come back in local time
	p.PublishedAt = p.PublishedAt.UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p
}
