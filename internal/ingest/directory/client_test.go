package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

const testAPIKey = "test-key"

type fakeDirectory struct {
	t *testing.T

	mu          sync.Mutex
	personBody  map[string]any
	outputCalls int
	outputs     []map[string]any
}

func (f *fakeDirectory) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/organisational-units", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, testAPIKey, r.URL.Query().Get("apiKey"))

		f.write(w, map[string]any{"count": 3, "items": []map[string]any{
			{"uuid": "u-fin", "name": map[string]any{"text": []map[string]any{{"value": "Finance"}}}, "info": map[string]any{"prettyURLIdentifiers": []string{"finance"}}},
			{"uuid": "u-chem", "name": map[string]any{"text": []map[string]any{{"value": "Chemistry"}}}, "info": map[string]any{"prettyURLIdentifiers": []string{"chemistry"}}},
			{"uuid": "u-acc", "name": map[string]any{"text": []map[string]any{{"value": "Accountancy"}}}, "info": map[string]any{"prettyURLIdentifiers": []string{"acc", "accountancy"}}},
		}})
	})

	mux.HandleFunc("/persons", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.Contains(f.t, r.URL.Query().Get("fields"), "externalId")

		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		f.personBody = body
		f.mu.Unlock()

		f.write(w, map[string]any{"count": 1, "items": []map[string]any{{
			"uuid":       "p1",
			"externalId": "jdoe@illinois.edu",
			"name":       map[string]any{"firstName": "Jane", "lastName": "Doe"},
			"staffOrganisationAssociations": []map[string]any{
				{"organisationalUnit": map[string]any{"uuid": "u-fin", "name": map[string]any{"text": []map[string]any{{"value": "Finance"}}}}},
				{"organisationalUnit": map[string]any{"uuid": "u-fin", "name": map[string]any{"text": []map[string]any{{"value": "Finance"}}}}},
				{"organisationalUnit": map[string]any{"uuid": "u-acc", "name": map[string]any{"text": []map[string]any{{"value": "Accountancy"}}}}},
			},
			"profileInformations": []map[string]any{{"value": map[string]any{"text": []map[string]any{{"value": "<p>Climate <b>finance</b></p>"}}}}},
		}}})
	})

	mux.HandleFunc("/persons/p1/research-outputs", func(w http.ResponseWriter, r *http.Request) {
		size, err := strconv.Atoi(r.URL.Query().Get("size"))
		require.NoError(f.t, err)

		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(f.t, err)

		f.mu.Lock()
		f.outputCalls++
		f.mu.Unlock()

		end := min(offset+size, len(f.outputs))
		if offset > end {
			offset = end
		}

		f.write(w, map[string]any{"count": len(f.outputs), "items": f.outputs[offset:end]})
	})

	mux.HandleFunc("/persons/p-missing/research-outputs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":404,"title":"not found"}`)
	})

	mux.HandleFunc("/persons/p-busy/research-outputs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	return mux
}

func (f *fakeDirectory) write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("failed to write response: %v", err)
	}
}

func newTestClient(t *testing.T, f *fakeDirectory, outputPage int) *Client {
	t.Helper()

	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)

	logger := zerolog.Nop()

	return New(Config{
		BaseURL:           ts.URL + "/",
		APIKey:            testAPIKey,
		OrgIdentifiers:    []string{"finance", "accountancy"},
		OutputPageSize:    outputPage,
		RequestsPerSecond: 1000,
	}, &logger)
}

func outputFixture(i int) map[string]any {
	return map[string]any{
		"uuid":                fmt.Sprintf("a%d", i),
		"title":               map[string]any{"value": fmt.Sprintf("Article %d", i)},
		"publicationStatuses": []map[string]any{{"publicationDate": map[string]any{"year": 2020 + i}}},
	}
}

func TestClient_OrgUnits(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{t: t}, 0)

	units, err := c.OrgUnits(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "u-fin", units[0].UUID)
	assert.Equal(t, "Finance", units[0].Name)
	assert.Equal(t, "u-acc", units[1].UUID)
}

func TestClient_Faculty(t *testing.T) {
	f := &fakeDirectory{t: t}
	c := newTestClient(t, f, 0)

	persons, err := c.Faculty(context.Background())
	require.NoError(t, err)
	require.Len(t, persons, 1)

	p := persons[0]
	assert.Equal(t, "p1", p.PersonID)
	assert.Equal(t, "jdoe@illinois.edu", p.Email)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, []string{"Finance", "Accountancy"}, p.Units)
	assert.Equal(t, "Climate finance", p.About)

	forOrgs, ok := f.personBody["forOrganisations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"u-fin", "u-acc"}, forOrgs["uuids"])
}

func TestClient_PersonsWithoutUnits(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{t: t}, 0)

	persons, err := c.Persons(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, persons)
}

func TestClient_ResearchOutputsPaging(t *testing.T) {
	f := &fakeDirectory{t: t}
	for i := 0; i < 5; i++ {
		f.outputs = append(f.outputs, outputFixture(i))
	}

	c := newTestClient(t, f, 2)

	outputs, err := c.ResearchOutputs(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, outputs, 5)
	assert.Equal(t, 3, f.outputCalls, "pages of 2, 2 and 1")

	for i, o := range outputs {
		assert.Equal(t, "p1", o.PersonID)
		assert.Equal(t, fmt.Sprintf("a%d", i), o.ArticleID)
		assert.Equal(t, strconv.Itoa(2020+i), o.PublicationYear)
		assert.Equal(t, domain.NoDOI, o.DOI)
	}
}

func TestClient_ResearchOutputsExactPage(t *testing.T) {
	f := &fakeDirectory{t: t}
	for i := 0; i < 4; i++ {
		f.outputs = append(f.outputs, outputFixture(i))
	}

	c := newTestClient(t, f, 2)

	outputs, err := c.ResearchOutputs(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, outputs, 4)
	assert.Equal(t, 3, f.outputCalls, "an empty page ends paging")
}

func TestClient_ResearchOutputsErrors(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{t: t}, 0)

	_, err := c.ResearchOutputs(context.Background(), "p-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUnexpectedStatus))
	assert.True(t, strings.Contains(err.Error(), "404"))

	_, err = c.ResearchOutputs(context.Background(), "p-busy")
	assert.ErrorIs(t, err, errRateLimited)
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, &fakeDirectory{t: t}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.OrgUnits(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
