package recommend

import "errors"

var (
	// ErrEmptyQuery means the profile produced no usable search text.
	ErrEmptyQuery = errors.New("profile produced an empty search query")

	// ErrQuerySynthesis means the external text generator failed to produce
	// a search phrase; callers may fall back to the structured summary.
	ErrQuerySynthesis = errors.New("query synthesis failed")

	// ErrRetrieval wraps embedding-provider or vector-index failures. They
	// are not retried here; the caller decides between retry and surfacing.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrNoProfile means personal recommendations were requested for a user
	// without a stored profile.
	ErrNoProfile = errors.New("user has no profile")
)
