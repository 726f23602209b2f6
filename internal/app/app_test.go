package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aleksaelezovic/rdfa/internal/config"
	"github.com/aleksaelezovic/rdfa/internal/logger"
	"github.com/aleksaelezovic/rdfa/pkg/rdfa"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, fetcher vocab.Fetcher, logs *bytes.Buffer) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone
	a, err := New(cfg, logger.New(logs, slog.LevelDebug, false), fetcher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestExtract_RemoteDocument(t *testing.T) {
	var accepted string
	fetcher := vocab.FetcherFunc(func(_ context.Context, uri, accept string) (*vocab.Response, error) {
		accepted = accept
		require.Equal(t, "http://example.org/pic.svg", uri)
		return &vocab.Response{
			Body:        []byte(`<svg xmlns="http://www.w3.org/2000/svg"><title property="http://purl.org/dc/terms/title">Pic</title></svg>`),
			ContentType: "image/svg+xml",
		}, nil
	})
	logs := new(bytes.Buffer)
	a := newTestApp(t, fetcher, logs)

	out := new(bytes.Buffer)
	res, err := a.Extract(context.Background(), ExtractRequest{
		Source:  "http://example.org/pic.svg",
		Options: a.Options(),
	}, out)
	require.NoError(t, err)
	require.Len(t, res.Triples, 1)

	assert.Equal(t, DocumentAccept, accepted)
	assert.Equal(t, "<http://example.org/pic.svg> <http://purl.org/dc/terms/title> \"Pic\" .\n", out.String())
	assert.Contains(t, logs.String(), "media_type=image/svg+xml")
}

func TestExtract_StdinRequiresInput(t *testing.T) {
	a := newTestApp(t, nil, new(bytes.Buffer))
	_, err := a.Extract(context.Background(), ExtractRequest{Source: "-"}, new(bytes.Buffer))
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestNew_InvalidHostLanguage(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone
	cfg.RDFa.HostLanguage = "docbook"
	_, err := New(cfg, logger.Discard(), nil)
	assert.ErrorIs(t, err, rdfa.ErrUnknownHostLanguage)
}

func TestLogDiagnostics_Levels(t *testing.T) {
	logs := new(bytes.Buffer)
	a := newTestApp(t, nil, logs)

	a.LogDiagnostics(context.Background(), []rdfa.Diagnostic{
		{Severity: rdfa.SeverityInfo, Message: "note"},
		{Severity: rdfa.SeverityWarning, Message: "careful", Node: "span"},
		{Severity: rdfa.SeverityError, Message: "broken", Fatal: true},
	})

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[1], "level=WARN")
	assert.Contains(t, lines[1], "element=span")
	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], "fatal=true")
}

func TestWarmCache_Disabled(t *testing.T) {
	a := newTestApp(t, nil, new(bytes.Buffer))
	err := a.WarmCache(context.Background(), []string{"http://example.org/v"})
	assert.ErrorIs(t, err, ErrCacheDisabled)
}
