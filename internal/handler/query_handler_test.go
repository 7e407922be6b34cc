package handler_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/tohfas/RAG-Access-Control/internal/access"
	"github.com/tohfas/RAG-Access-Control/internal/corpus"
	"github.com/tohfas/RAG-Access-Control/internal/handler"
	"github.com/tohfas/RAG-Access-Control/internal/index"
	"github.com/tohfas/RAG-Access-Control/internal/middleware"
	"github.com/tohfas/RAG-Access-Control/internal/model"
	"github.com/tohfas/RAG-Access-Control/internal/service"
)

type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	var norm float64
	for i := range vec {
		vec[i] = float32(sum[i]) - 127.5
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (hashEmbedder) ModelName() string { return "hash-embed" }

type textLoader struct{}

func (textLoader) Load(_ context.Context, path string) ([]model.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []model.Segment{{Text: string(data), Page: 1}}, nil
}

type scriptedGenerator struct {
	answer string
}

func (g scriptedGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.answer, nil
}

func setupRouter(t *testing.T, accessJSON string, docs map[string]string, answer string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	accessPath := filepath.Join(dir, "user_access.json")
	require.NoError(t, os.WriteFile(accessPath, []byte(accessJSON), 0o644))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	registry := access.NewRegistry(accessPath)
	assembler := corpus.NewAssembler(dir, ".pdf", textLoader{})
	builder := service.NewIndexBuilder(index.NewBuilder(hashEmbedder{}))
	synthesizer := service.NewSynthesizer(scriptedGenerator{answer: answer}, nil, time.Minute)
	queryService := service.NewQueryService(registry, assembler, builder, synthesizer, 4, 0, 0)

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, handler.RouterDeps{
				Query: handler.NewQueryHandler(queryService),
			})
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func postQuery(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Code int                 `json:"code"`
	Msg  string              `json:"msg"`
	Data model.QueryResponse `json:"data"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestQueryEndpoint_AnswersWithCitations(t *testing.T) {
	router := setupRouter(t,
		`{"alice": ["std1.pdf"]}`,
		map[string]string{"std1.pdf": "Clause 4.2 requires X"},
		"Clause 4.2 requires X.",
	)

	resp := postQuery(t, router, `{"email": "alice", "question": "What does clause 4.2 require?"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decode(t, resp)
	require.Contains(t, out.Data.Answer, "X")
	require.Equal(t, []model.Citation{{Source: "std1.pdf", Page: 1}}, out.Data.Sources)
}

func TestQueryEndpoint_NoGrantsMeansNoAccessMessage(t *testing.T) {
	router := setupRouter(t, `{"bob": []}`, nil, "irrelevant")

	resp := postQuery(t, router, `{"email": "bob", "question": "anything?"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decode(t, resp)
	require.Equal(t, service.MsgNoAccess, out.Data.Answer)
	require.Empty(t, out.Data.Sources)
}

func TestQueryEndpoint_ModelDeclineCollapsesToNoContent(t *testing.T) {
	router := setupRouter(t,
		`{"carol": ["std2.pdf"]}`,
		map[string]string{"std2.pdf": "completely unrelated prose"},
		"I don't know.",
	)

	resp := postQuery(t, router, `{"email": "carol", "question": "what is the meaning of life?"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decode(t, resp)
	require.Equal(t, service.MsgNoContent, out.Data.Answer)
	require.Empty(t, out.Data.Sources)
}

func TestQueryEndpoint_MalformedBodyIsInvalid(t *testing.T) {
	router := setupRouter(t, `{}`, nil, "irrelevant")

	resp := postQuery(t, router, `{"email": `)
	require.Equal(t, http.StatusOK, resp.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	code, _ := out["code"].(float64)
	require.NotZero(t, code)
}

func TestQueryEndpoint_MissingRegistryIsServerFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := access.NewRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assembler := corpus.NewAssembler(t.TempDir(), ".pdf", textLoader{})
	builder := service.NewIndexBuilder(index.NewBuilder(hashEmbedder{}))
	synthesizer := service.NewSynthesizer(scriptedGenerator{answer: "x"}, nil, time.Minute)
	queryService := service.NewQueryService(registry, assembler, builder, synthesizer, 4, 0, 0)

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, handler.RouterDeps{Query: handler.NewQueryHandler(queryService)})
		}),
	)
	require.NoError(t, err)

	resp := postQuery(t, engine, `{"email": "alice", "question": "q?"}`)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t, `{}`, nil, "irrelevant")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
