package model

// QueryResult is the answer returned by the question answering pipeline.
// Sources lists the section identifiers of the retrieved context chunks in
// retrieval order. Verified reports whether the answer was grounded in the
// retrieved context rather than refused.
type QueryResult struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Verified bool     `json:"verified"`
}

// QAStats reports corpus statistics for the QA service.
type QAStats struct {
	ActiveDocuments int64  `json:"active_documents"`
	EmbeddingModel  string `json:"embedding_model"`
	ChatModel       string `json:"chat_model"`
}
