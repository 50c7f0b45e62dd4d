package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out     []byte
	err     error
	gotArgs []string
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	f.gotArgs = args
	return f.out, f.err
}

func TestSearchParsesTabLines(t *testing.T) {
	fr := &fakeRunner{out: []byte("abc123\tAttack on Titan\t25\nxyz789\tOne Piece\t1100\n")}
	p := &Provider{Runner: fr}

	entries, err := p.Search(context.Background(), "titan")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].ShowID)
	assert.Equal(t, "Attack on Titan", entries[0].Title)
	assert.Equal(t, 25, entries[0].Episodes)
	assert.Equal(t, []string{"/search", "query=titan"}, fr.gotArgs)
}

func TestSearchStripsControlSequences(t *testing.T) {
	fr := &fakeRunner{out: []byte("\x1b[1;32mabc123\tShow Name\t12\x1b[0m\r\n")}
	p := &Provider{Runner: fr}

	entries, err := p.Search(context.Background(), "show")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0].ShowID)
	assert.Equal(t, "Show Name", entries[0].Title)
}

func TestSearchSkipsBlankLines(t *testing.T) {
	fr := &fakeRunner{out: []byte("\n\nabc\tShow\t3\n\n")}
	p := &Provider{Runner: fr}

	entries, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSearchMalformedLineIsParseError(t *testing.T) {
	fr := &fakeRunner{out: []byte("abc123\tno episode count here\n")}
	p := &Provider{Runner: fr}

	_, err := p.Search(context.Background(), "q")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "search", pe.Op)
	assert.Contains(t, pe.Raw, "abc123")
}

func TestSearchBadEpisodeCountIsParseError(t *testing.T) {
	fr := &fakeRunner{out: []byte("abc123\tShow\tmany\n")}
	p := &Provider{Runner: fr}

	_, err := p.Search(context.Background(), "q")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestSearchRunnerFailurePropagates(t *testing.T) {
	fr := &fakeRunner{err: errors.New("exit status 1")}
	p := &Provider{Runner: fr}

	_, err := p.Search(context.Background(), "q")
	assert.Error(t, err)
	var pe *ParseError
	assert.False(t, errors.As(err, &pe), "transport failure is not a parse error")
}

func TestEpisodesPassesThroughJSON(t *testing.T) {
	fr := &fakeRunner{out: []byte(`{"episodes": [1, 2, 3]}`)}
	p := &Provider{Runner: fr}

	raw, err := p.Episodes(context.Background(), "abc123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"episodes": [1, 2, 3]}`, string(raw))
	assert.Equal(t, []string{"/episodes/abc123"}, fr.gotArgs)
}

func TestEpisodesGarbledOutputIsParseError(t *testing.T) {
	fr := &fakeRunner{out: []byte("segmentation fault")}
	p := &Provider{Runner: fr}

	_, err := p.Episodes(context.Background(), "abc123")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "episodes", pe.Op)
	assert.Equal(t, "segmentation fault", pe.Raw)
}

func TestEpisodeURLDefaultsQuality(t *testing.T) {
	fr := &fakeRunner{out: []byte(`{"url": "https://example.com/ep1.m3u8"}`)}
	p := &Provider{Runner: fr}

	raw, err := p.EpisodeURL(context.Background(), "abc123", "1", "")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "m3u8")
	assert.Equal(t, []string{"/episode_url", "show_id=abc123&ep_no=1&quality=best"}, fr.gotArgs)
}
