package model

// Segment is a retrievable unit of document text. Source always carries the
// document reference the caller requested, not whatever name the loader saw;
// Page is 1-based, 0 when unknown.
type Segment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// Citation points at the document and page an answer draws from.
type Citation struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

type QueryRequest struct {
	Email    string `json:"email"`
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
}
