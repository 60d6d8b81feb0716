package crawler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarintel/internal/logger"
	"solarintel/internal/models"
)

var errUpstream = errors.New("upstream down")

type stubSource struct {
	name     string
	fail     map[string]bool
	delay    map[string]time.Duration
	panicOn  string
	inFlight *int32
	maxSeen  *int32
	hasKey   bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) HasCredential() bool { return s.hasKey }

func (s *stubSource) Fetch(ctx context.Context, req Request) ([]models.RawItem, error) {
	if s.inFlight != nil {
		n := atomic.AddInt32(s.inFlight, 1)
		defer atomic.AddInt32(s.inFlight, -1)

		for {
			prev := atomic.LoadInt32(s.maxSeen)
			if n <= prev || atomic.CompareAndSwapInt32(s.maxSeen, prev, n) {
				break
			}
		}
	}

	if d := s.delay[req.Subject.Name]; d > 0 {
		time.Sleep(d)
	}

	if req.Subject.Name == s.panicOn && s.panicOn != "" {
		panic("boom")
	}

	if s.fail[req.Subject.Name] {
		return nil, errUpstream
	}

	return []models.RawItem{
		{Title: s.name + " " + req.Subject.Name, Link: "https://x/" + s.name + "/" + req.Subject.Name, GroupKey: "overwritten"},
	}, nil
}

func subjects(names ...string) []models.Subject {
	out := make([]models.Subject, len(names))
	for i, n := range names {
		out[i] = models.Subject{Name: n}
	}

	return out
}

func TestFetcher_FetchAll_OrderedAndIsolated(t *testing.T) {
	src := &stubSource{
		name:  "api",
		fail:  map[string]bool{"B": true},
		delay: map[string]time.Duration{"A": 30 * time.Millisecond},
	}
	f := NewFetcher([]Source{src}, 3, nil)

	results := f.FetchAll(context.Background(), subjects("A", "B", "C"))

	require.Len(t, results, 3)
	assert.Equal(t, "A", results[0].Subject.Name)
	assert.Equal(t, "B", results[1].Subject.Name)
	assert.Equal(t, "C", results[2].Subject.Name)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, errUpstream)
	assert.Empty(t, results[1].Items)
	assert.NoError(t, results[2].Err)

	items := Items(results)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].GroupKey)
	assert.Equal(t, "C", items[1].GroupKey)
	assert.Equal(t, 1, Failures(results))
}

func TestFetcher_FetchAll_LogsPerSubjectDuration(t *testing.T) {
	var buf bytes.Buffer

	src := &stubSource{
		name:  "api",
		fail:  map[string]bool{"B": true},
		delay: map[string]time.Duration{"A": 20 * time.Millisecond},
	}
	log := logger.New(logger.Options{Level: "debug", Format: "json", Writer: &buf})

	results := NewFetcher([]Source{src}, 2, log).FetchAll(context.Background(), subjects("A", "B"))

	assert.GreaterOrEqual(t, results[0].Duration, 20*time.Millisecond)

	var complete, failed string

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		switch {
		case strings.Contains(line, `"msg":"fetch complete"`):
			complete = line
		case strings.Contains(line, `"msg":"fetch failed"`):
			failed = line
		}
	}

	assert.Contains(t, complete, `"subject":"A"`)
	assert.Contains(t, complete, `"items":1`)
	assert.Contains(t, complete, `"duration":"`)
	assert.Contains(t, failed, `"subject":"B"`)
	assert.Contains(t, failed, `"level":"WARN"`)
	assert.Contains(t, failed, "upstream down")
}

func TestFetcher_FetchAll_NoSubjectsRunsOncePerSource(t *testing.T) {
	f := NewFetcher([]Source{&stubSource{name: "one"}, &stubSource{name: "two"}}, 0, nil)

	results := f.FetchAll(context.Background(), nil)

	require.Len(t, results, 2)
	assert.Equal(t, "one", results[0].Source)
	assert.Equal(t, "two", results[1].Source)
	assert.Equal(t, "overwritten", results[0].Items[0].GroupKey, "no subject leaves the source's group key")
}

func TestFetcher_FetchAll_ConcurrencyBound(t *testing.T) {
	var inFlight, maxSeen int32

	delay := map[string]time.Duration{}
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	for _, n := range names {
		delay[n] = 20 * time.Millisecond
	}

	src := &stubSource{name: "s", delay: delay, inFlight: &inFlight, maxSeen: &maxSeen}
	f := NewFetcher([]Source{src}, 2, nil)

	results := f.FetchAll(context.Background(), subjects(names...))

	assert.Len(t, Items(results), len(names))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

func TestFetcher_FetchAll_RecoversPanic(t *testing.T) {
	f := NewFetcher([]Source{&stubSource{name: "s", panicOn: "B"}}, 1, nil)

	results := f.FetchAll(context.Background(), subjects("A", "B", "C"))

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestFetcher_FetchAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewFetcher([]Source{&stubSource{name: "s"}}, 1, nil).FetchAll(ctx, subjects("A"))

	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Empty(t, Items(results))
}

func TestFetcher_CheckCredentials(t *testing.T) {
	ok := NewFetcher([]Source{&stubSource{name: "s", hasKey: true}}, 1, nil)
	assert.NoError(t, ok.CheckCredentials())

	missing := NewFetcher([]Source{&stubSource{name: "s"}}, 1, nil)
	assert.ErrorIs(t, missing.CheckCredentials(), ErrMissingCredential)
}

func TestRenderQuery(t *testing.T) {
	s := models.Subject{Name: "Black & Veatch"}

	assert.Equal(t, `"Black & Veatch" AND solar`, RenderQuery(`"{subject}" AND solar`, s))
	assert.Equal(t, "solar", RenderQuery("solar", s))
	assert.Equal(t, "ca", RenderQuery("{subject}", models.Subject{Name: "CA", Value: "ca"}))
}
