// Package ingestion embeds OCR'd policy document pages and loads them into
// the vector index and the chunk store.
package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/llm"
	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	"github.com/ardkyer/labor-policy-assistant/internal/recommend"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
	"github.com/ardkyer/labor-policy-assistant/internal/vector/milvus"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// Page is one OCR'd page of a policy document.
type Page struct {
	Number int
	Text   string
}

type Processor struct {
	db           *sqlite.Client
	vectorDB     *milvus.Client
	llmClient    *llm.Client
	chunkSize    int
	chunkOverlap int
	batchSize    int
	pacingDelay  time.Duration
}

func NewProcessor(db *sqlite.Client, vectorDB *milvus.Client, llmClient *llm.Client, chunkSize, batchSize, pacingDelayMS int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Processor{
		db:           db,
		vectorDB:     vectorDB,
		llmClient:    llmClient,
		chunkSize:    chunkSize,
		chunkOverlap: 100,
		batchSize:    batchSize,
		pacingDelay:  time.Duration(pacingDelayMS) * time.Millisecond,
	}
}

// ProcessDocument chunks every page, embeds the chunks in paced batches,
// and writes them to both the vector index and the relational chunk table.
// Embedding requests are spaced by the pacing delay to stay under provider
// rate limits during bulk loads.
func (p *Processor) ProcessDocument(ctx context.Context, policyID string, pages []Page) (int, error) {
	logger.Info("Processing policy document",
		zap.String("policy_id", policyID),
		zap.Int("pages", len(pages)),
	)

	var chunks []vector.Chunk
	for _, page := range pages {
		for _, text := range p.chunkText(page.Text) {
			chunks = append(chunks, vector.Chunk{
				ID:       uuid.NewString(),
				Text:     text,
				Page:     strconv.Itoa(page.Number),
				Title:    recommend.ExtractTitle(text),
				Category: recommend.ClassifyCategory(text),
				PolicyID: policyID,
			})
		}
	}

	if len(chunks) == 0 {
		return 0, fmt.Errorf("no text extracted from document %s", policyID)
	}

	logger.Info("Document chunked", zap.Int("chunks", len(chunks)))

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := p.llmClient.EmbedBatch(ctx, texts, p.batchSize)
		if err != nil {
			return 0, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(batch))
		}

		for i := range batch {
			chunks[start+i].Embedding = embeddings[i]
		}

		if end < len(chunks) && p.pacingDelay > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(p.pacingDelay):
			}
		}
	}

	if err := p.vectorDB.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to insert into vector index: %w", err)
	}

	now := time.Now()
	for i, c := range chunks {
		dbChunk := &models.PolicyChunk{
			ID:         c.ID,
			PolicyID:   c.PolicyID,
			Content:    c.Text,
			PageNumber: c.Page,
			ChunkIndex: i,
			Title:      c.Title,
			Category:   c.Category,
			CreatedAt:  now,
		}
		if err := p.db.InsertPolicyChunk(dbChunk); err != nil {
			logger.Warn("Failed to store chunk row",
				zap.String("chunk_id", c.ID),
				zap.Error(err),
			)
		}
	}

	metrics.ChunksIngested.Add(float64(len(chunks)))

	logger.Info("Policy document processed",
		zap.String("policy_id", policyID),
		zap.Int("chunks", len(chunks)),
	)

	return len(chunks), nil
}

// chunkText splits page text into word-bounded chunks with a small overlap
// so sentences cut at a boundary still retrieve.
func (p *Processor) chunkText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentSize := 0

	for _, word := range words {
		wordLen := len(word) + 1

		if currentSize+wordLen > p.chunkSize && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))

			overlapWords := strings.Fields(current.String())
			overlapStart := len(overlapWords) - p.chunkOverlap/10
			if overlapStart < 0 {
				overlapStart = 0
			}
			current.Reset()
			current.WriteString(strings.Join(overlapWords[overlapStart:], " ") + " ")
			currentSize = current.Len()
		}

		current.WriteString(word + " ")
		currentSize += wordLen
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}
