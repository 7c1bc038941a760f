package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/vector"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

var outputFields = []string{"chunk_id", "text", "page", "title", "category", "policy_id"}

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	cfg := client.Config{Address: endpoint}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	c, err := client.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) CreateCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Labor policy document chunk embeddings",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8192",
				},
			},
			{
				Name:     "page",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "16",
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "category",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "policy_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))
	return nil
}

func (m *Client) Insert(ctx context.Context, chunks []vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	texts := make([]string, len(chunks))
	pages := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	categories := make([]string, len(chunks))
	policyIDs := make([]string, len(chunks))

	for i, chunk := range chunks {
		chunkIDs[i] = chunk.ID
		embeddings[i] = chunk.Embedding
		texts[i] = chunk.Text
		pages[i] = chunk.Page
		titles[i] = chunk.Title
		categories[i] = chunk.Category
		policyIDs[i] = chunk.PolicyID
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", chunkIDs),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("page", pages),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("policy_id", policyIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Chunks inserted into vector index", zap.Int("count", len(chunks)))
	return nil
}

// Search returns the topK nearest chunks by cosine similarity, in the
// index's native score order.
func (m *Client) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]vector.Match, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]vector.Match, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			match := vector.Match{Score: sr.Scores[i]}
			match.ID = columnString(sr.Fields.GetColumn("chunk_id"), i)
			match.Text = columnString(sr.Fields.GetColumn("text"), i)
			match.Page = columnString(sr.Fields.GetColumn("page"), i)
			match.Title = columnString(sr.Fields.GetColumn("title"), i)
			match.Category = columnString(sr.Fields.GetColumn("category"), i)
			match.PolicyID = columnString(sr.Fields.GetColumn("policy_id"), i)
			results = append(results, match)
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Fetch retrieves chunks by id, for direct policy lookup.
func (m *Client) Fetch(ctx context.Context, ids []string) (map[string]vector.Match, error) {
	if len(ids) == 0 {
		return map[string]vector.Match{}, nil
	}

	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	expr := fmt.Sprintf("chunk_id in [%s]", strings.Join(quoted, ", "))

	resultSet, err := m.client.Query(ctx, m.collectionName, []string{}, expr, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}

	results := make(map[string]vector.Match)
	idCol := resultSet.GetColumn("chunk_id")
	if idCol == nil {
		return results, nil
	}

	for i := 0; i < idCol.Len(); i++ {
		match := vector.Match{}
		match.ID = columnString(resultSet.GetColumn("chunk_id"), i)
		match.Text = columnString(resultSet.GetColumn("text"), i)
		match.Page = columnString(resultSet.GetColumn("page"), i)
		match.Title = columnString(resultSet.GetColumn("title"), i)
		match.Category = columnString(resultSet.GetColumn("category"), i)
		match.PolicyID = columnString(resultSet.GetColumn("policy_id"), i)
		results[match.ID] = match
	}

	return results, nil
}

func columnString(col entity.Column, idx int) string {
	if col == nil {
		return ""
	}
	val, err := col.Get(idx)
	if err != nil {
		return ""
	}
	s, _ := val.(string)
	return s
}
