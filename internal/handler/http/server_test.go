package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/auth"
	"LinkHub-Backend/internal/classifier"
	"LinkHub-Backend/internal/repository/memory"
	"LinkHub-Backend/internal/service"
	"LinkHub-Backend/internal/shield"
	"LinkHub-Backend/pkg/useragent"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	freeOwner     int64 = 100
	standardOwner int64 = 200
	premiumOwner  int64 = 300

	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// recordingProcessor captures visits synchronously instead of queueing them.
type recordingProcessor struct {
	mu     sync.Mutex
	visits []*analytics.Visit
}

func (p *recordingProcessor) Submit(v *analytics.Visit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visits = append(p.visits, v)
	return nil
}

func (p *recordingProcessor) Start() error { return nil }
func (p *recordingProcessor) Stop() error  { return nil }

func (p *recordingProcessor) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "queue_length": 0}
}

func (p *recordingProcessor) recorded() []*analytics.Visit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*analytics.Visit(nil), p.visits...)
}

type testServer struct {
	t         *testing.T
	store     *memory.MemStorage
	processor *recordingProcessor
	jwt       *auth.JWTService
	handler   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()

	store := memory.New()
	store.SetUserPlan(standardOwner, 2)
	store.SetUserPlan(premiumOwner, 3)

	plans := service.NewPlanService(store, log)
	links := service.NewLinkService(store, plans, service.NewSlugAllocator(store, 10), log)
	folders := service.NewFolderService(store, plans, links, log)

	svc, err := analytics.NewService(store, analytics.NewAggregator(time.UTC, 5), 16, log)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(&auth.JWTConfig{SecretKey: []byte("test-secret"), Issuer: "test", TokenTTL: time.Hour})
	processor := &recordingProcessor{}

	server := NewServer(Deps{
		Storage:          store,
		Links:            links,
		Folders:          folders,
		Plans:            plans,
		Analytics:        svc,
		Processor:        processor,
		Classifier:       classifier.New(useragent.NewDefaultParser(log), 150*time.Millisecond),
		Resolver:         shield.NewResolver(shield.Config{DomainPool: []string{"l1.example", "l2.example"}}, log),
		Auth:             auth.NewMiddleware(jwtService, []string{"https://app.example"}, log),
		Limiter:          NewRateLimiter(0, 1, time.Minute, log),
		BaseURL:          "http://localhost:8080",
		DomainPool:       []string{"l1.example", "l2.example"},
		QRSize:           128,
		DefaultRangeDays: 7,
	}, log)

	return &testServer{
		t:         t,
		store:     store,
		processor: processor,
		jwt:       jwtService,
		handler:   server.SetupRoutes(),
	}
}

func (ts *testServer) token(ownerID int64) string {
	ts.t.Helper()
	token, err := ts.jwt.GenerateAccessToken(ownerID, "")
	require.NoError(ts.t, err)
	return token
}

// do sends a request as ownerID (0 for anonymous) with a browser User-Agent.
func (ts *testServer) do(method, target string, body interface{}, ownerID int64) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("User-Agent", browserUA)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != 0 {
		req.Header.Set("Authorization", "Bearer "+ts.token(ownerID))
	}
	return ts.serve(req)
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// createLink creates a link through the API and returns the decoded response.
func (ts *testServer) createLink(ownerID int64, in service.CreateLinkInput) LinkResponse {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/links", in, ownerID)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[LinkResponse](ts.t, rec)
}

func multiLink(title string) service.CreateLinkInput {
	return service.CreateLinkInput{
		Title: title,
		SubLinks: []service.SubLinkInput{
			{Title: "Blog", URL: "https://blog.example.com"},
			{Title: "Shop", URL: "https://shop.example.com"},
		},
	}
}

func directLink(title, url string) service.CreateLinkInput {
	return service.CreateLinkInput{Title: title, IsDirect: true, DirectURL: url}
}
