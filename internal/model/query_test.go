package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// The response shape is a wire contract with frontend callers: answer text
// plus ordered (source, page) citations.
func TestQueryResponseWireShape(t *testing.T) {
	resp := QueryResponse{
		Answer: "Clause 4.2 requires X.",
		Sources: []Citation{
			{Source: "std1.pdf", Page: 2},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"answer": "Clause 4.2 requires X.", "sources": [{"source": "std1.pdf", "page": 2}]}`,
		string(data),
	)
}

func TestQueryRequestWireShape(t *testing.T) {
	var req QueryRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"email": "alice@example.com", "question": "what does clause 4.2 require?"}`),
		&req,
	))
	require.Equal(t, "alice@example.com", req.Email)
	require.Equal(t, "what does clause 4.2 require?", req.Question)
}
