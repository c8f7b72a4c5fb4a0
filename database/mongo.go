package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"chatty/models"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

// userDoc maps to the users collection
type userDoc struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	Username         string        `bson:"username"`
	Email            string        `bson:"email"`
	Password         string        `bson:"password"`
	IsAvatarImageSet bool          `bson:"isAvatarImageSet"`
	AvatarImage      string        `bson:"avatarImage"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:               d.ID.Hex(),
		Username:         d.Username,
		Email:            d.Email,
		Password:         d.Password,
		IsAvatarImageSet: d.IsAvatarImageSet,
		AvatarImage:      d.AvatarImage,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// messageDoc maps to the messages collection. Users keeps the participant
// pair as sent; Pair is the sorted key used for conversation lookups.
type messageDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Message   messageBody   `bson:"message"`
	Users     []string      `bson:"users"`
	Pair      string        `bson:"pair"`
	Sender    string        `bson:"sender"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

type messageBody struct {
	Text  string `bson:"text"`
	Quote string `bson:"quote,omitempty"`
}

func (d *messageDoc) toModel() *models.Message {
	msg := &models.Message{
		ID:        d.ID.Hex(),
		Sender:    d.Sender,
		Text:      d.Message.Text,
		Quote:     d.Message.Quote,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	copy(msg.Users[:], d.Users)
	return msg
}

// MongoStore is the document-database backend
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	messages *mongo.Collection
}

// NewMongoStore connects to uri, selects database and ensures indexes
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URL is required for the mongo store")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(usersCollection),
		messages: db.Collection(messagesCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pair", Value: 1}, {Key: "updatedAt", Value: 1}},
	})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes both collections. Used by tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.users.Drop(ctx); err != nil {
		return err
	}
	return s.messages.Drop(ctx)
}

// objectID parses a hex id. Malformed ids cannot name a stored record, so
// they are reported as not found.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, ErrNotFound
	}
	return oid, nil
}

// User queries

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	doc := userDoc{
		ID:               bson.NewObjectID(),
		Username:         user.Username,
		Email:            user.Email,
		Password:         user.Password,
		IsAvatarImageSet: user.IsAvatarImageSet,
		AvatarImage:      user.AvatarImage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "index: email_1") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return err
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) ListUsers(ctx context.Context, excludeID, prefix string) ([]*models.User, error) {
	filter := bson.M{}
	if oid, err := bson.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	if prefix != "" {
		filter["username"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}

	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

func (s *MongoStore) SetAvatar(ctx context.Context, id, image string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"isAvatarImageSet": true,
		"avatarImage":      image,
		"updatedAt":        time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// Message queries

func (s *MongoStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	doc := messageDoc{
		ID:        bson.NewObjectID(),
		Message:   messageBody{Text: msg.Text, Quote: msg.Quote},
		Users:     []string{msg.Users[0], msg.Users[1]},
		Pair:      PairKey(msg.Users[0], msg.Users[1]),
		Sender:    msg.Sender,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return err
	}

	msg.ID = doc.ID.Hex()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	return nil
}

func (s *MongoStore) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc messageDoc
	err = s.messages.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.messages.Find(ctx, bson.M{"pair": PairKey(a, b)}, opts)
	if err != nil {
		return nil, err
	}

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	messages := make([]*models.Message, 0, len(docs))
	for i := range docs {
		messages = append(messages, docs[i].toModel())
	}
	return messages, nil
}
