// Package vector defines the shapes exchanged with the policy-chunk index.
package vector

// Chunk is one indexed policy passage with its embedding and metadata.
type Chunk struct {
	ID        string
	Embedding []float32
	Text      string
	Page      string
	Title     string
	Category  string
	PolicyID  string
}

// Match is a nearest-neighbor hit in the index's native score order.
type Match struct {
	ID       string
	Score    float32
	Text     string
	Page     string
	Title    string
	Category string
	PolicyID string
}
