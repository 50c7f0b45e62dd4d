package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anihub/internal/mapping"
	"anihub/internal/provider"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS mappings (
  show_id TEXT PRIMARY KEY,
  mal_id INTEGER,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_mappings_mal_id ON mappings(mal_id);
`

type stubResolver struct {
	id int64
	ok bool
}

func (s *stubResolver) Resolve(ctx context.Context, title string) (int64, bool, error) {
	return s.id, s.ok, nil
}

type fakeRunner struct {
	out []byte
	err error
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	return f.out, f.err
}

func testRouter(t *testing.T, runner provider.Runner, res mapping.TitleResolver) (*gin.Engine, *mapping.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	repo := mapping.NewRepo(db)
	svc := mapping.NewService(repo, res, nil, false, 2)
	h := NewHandler(&provider.Provider{Runner: runner}, svc)

	router := gin.New()
	h.RegisterRoutes(router)
	return router, repo
}

func doGET(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSearchReturnsReconciledItems(t *testing.T) {
	runner := &fakeRunner{out: []byte("abc123\tAttack on Titan\t25\n")}
	router, _ := testRouter(t, runner, &stubResolver{id: 16498, ok: true})

	w := doGET(router, "/search?query=titan")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []struct {
			ShowID   string `json:"show_id"`
			Title    string `json:"title"`
			Episodes int    `json:"episodes"`
			MalID    *int64 `json:"mal_id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "abc123", body.Items[0].ShowID)
	require.NotNil(t, body.Items[0].MalID)
	assert.Equal(t, int64(16498), *body.Items[0].MalID)
}

func TestSearchRequiresQuery(t *testing.T) {
	router, _ := testRouter(t, &fakeRunner{}, &stubResolver{})

	w := doGET(router, "/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestEpisodesUnknownMalIDIsNotFound(t *testing.T) {
	router, _ := testRouter(t, &fakeRunner{}, &stubResolver{})

	w := doGET(router, "/episodes/99999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestEpisodesPassesThroughProviderJSON(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"episodes": [1, 2]}`)}
	router, repo := testRouter(t, runner, &stubResolver{})

	malID := int64(16498)
	require.NoError(t, repo.Upsert(context.Background(), "abc123", &malID))

	w := doGET(router, "/episodes/16498")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"episodes": [1, 2]}`, w.Body.String())
}

func TestEpisodesGarbledProviderOutput(t *testing.T) {
	runner := &fakeRunner{out: []byte("garbage output")}
	router, repo := testRouter(t, runner, &stubResolver{})

	malID := int64(16498)
	require.NoError(t, repo.Upsert(context.Background(), "abc123", &malID))

	w := doGET(router, "/episodes/16498")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "parse_error")
	assert.Contains(t, w.Body.String(), "garbage output")
}

func TestEpisodeURLValidation(t *testing.T) {
	router, _ := testRouter(t, &fakeRunner{}, &stubResolver{})

	w := doGET(router, "/episode_url?mal_id=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGET(router, "/episode_url?mal_id=5")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ep_no")
}

func TestEpisodeURLResolvesByMalID(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"url": "https://example.com/1.m3u8"}`)}
	router, repo := testRouter(t, runner, &stubResolver{})

	malID := int64(21)
	require.NoError(t, repo.Upsert(context.Background(), "op-show", &malID))

	w := doGET(router, "/episode_url?mal_id=21&ep_no=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "m3u8")
}
