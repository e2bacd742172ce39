package dbclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"maileditor/internal/domain"
)

const templatesCollection = "email_templates"

// mongoTemplate is the stored document. The template itself is kept as JSON
// so block content round-trips through the same decoder as every other store.
type mongoTemplate struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Subject    string    `bson:"subject"`
	BlockCount int       `bson:"blockCount"`
	Document   string    `bson:"document,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

type mongoStore struct {
	client *mongo.Client
	dbName string
	log    zerolog.Logger
}

// buildMongoURI returns the connection URI and database name. Host may
// already be a full mongodb:// or mongodb+srv:// URI (Atlas).
func buildMongoURI(conn *domain.DatabaseConnection, password string) (uri, dbName string) {
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, password, conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}
	}

	dbName = conn.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = "maileditor"
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		uri = strings.TrimPrefix(uri, prefix)
	}
	if at := strings.LastIndex(uri, "@"); at != -1 {
		uri = uri[at+1:]
	}
	slash := strings.Index(uri, "/")
	if slash == -1 {
		return ""
	}
	path := uri[slash+1:]
	if q := strings.Index(path, "?"); q != -1 {
		path = path[:q]
	}
	return path
}

func newMongoStore(conn *domain.DatabaseConnection, password string, log zerolog.Logger) (*mongoStore, error) {
	uri, dbName := buildMongoURI(conn, password)

	logURI := uri
	if password != "" {
		logURI = strings.ReplaceAll(logURI, password, "***")
	}
	log.Info().Str("uri", logURI).Str("database", dbName).Msg("connecting to mongodb")

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoStore{client: client, dbName: dbName, log: log}, nil
}

func (m *mongoStore) coll() *mongo.Collection {
	return m.client.Database(m.dbName).Collection(templatesCollection)
}

func (m *mongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoStore) Migrate(ctx context.Context) error {
	_, err := m.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create updatedAt index: %w", err)
	}
	return nil
}

func (m *mongoStore) SaveTemplate(ctx context.Context, t *domain.Template) error {
	doc, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	row := mongoTemplate{
		ID:         t.ID,
		Name:       t.Name,
		Subject:    t.Subject,
		BlockCount: len(t.Blocks),
		Document:   doc,
		CreatedAt:  t.CreatedAt.UTC(),
		UpdatedAt:  t.UpdatedAt.UTC(),
	}
	_, err = m.coll().ReplaceOne(ctx, bson.M{"_id": t.ID}, row, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	m.log.Debug().Str("template", t.ID).Msg("template saved")
	return nil
}

func (m *mongoStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var row mongoTemplate
	err := m.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.TemplateNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return decodeTemplate([]byte(row.Document))
}

func (m *mongoStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"document": 0})
	cursor, err := m.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []mongoTemplate
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	out := make([]domain.TemplateSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.TemplateSummary{
			ID:         r.ID,
			Name:       r.Name,
			Subject:    r.Subject,
			BlockCount: r.BlockCount,
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out, nil
}

func (m *mongoStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := m.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.TemplateNotFound(id)
	}
	return nil
}

func (m *mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
