package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anadolic/inkwell/internal/blog"
)

func (s *IntegrationTestSuite) getAllEntries(ctx context.Context, client *http.Client) []*blog.Entry {
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/blog/all", nil)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := client.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var entries []*blog.Entry
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&entries))

	return entries
}

func (s *IntegrationTestSuite) newEntryRequest(ctx context.Context, entry blog.Entry) string {
	entryJson, err := json.Marshal(entry)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", serverEndpoint+"/blog/new",
		bytes.NewReader(entryJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	id := strings.TrimPrefix(string(respBytes), "added:")
	require.NotEmpty(s.T(), id)

	return id
}

func (s *IntegrationTestSuite) deleteEntryRequest(ctx context.Context, id string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		"DELETE", fmt.Sprintf("%s/blog/delete/%s", serverEndpoint, id),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	return s.httpClient.Do(req)
}

func (s *IntegrationTestSuite) TestBlogEntries() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	anonymousClient := &http.Client{}

	s.T().Run("try add entry without session", func(t *testing.T) {
		entryJson, err := json.Marshal(blog.Entry{
			Title:   "sneaky entry",
			Content: "this should not make it through",
			Author:  "stranger",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(
			ctx,
			"POST", serverEndpoint+"/blog/new",
			bytes.NewReader(entryJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := anonymousClient.Do(req)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	s.T().Run("editor adds, readers see only published", func(t *testing.T) {
		s.doLogin(ctx)

		publishedID := s.newEntryRequest(ctx, blog.Entry{
			Title:   "Published Thoughts",
			Content: "these thoughts are ready for the world",
			Author:  "ana",
			Status:  blog.StatusPublished,
		})
		draftID := s.newEntryRequest(ctx, blog.Entry{
			Title:   "Draft Thoughts",
			Content: "these thoughts are still cooking",
			Author:  "ana",
		})

		// editor sees both, sorted by title
		editorEntries := s.getAllEntries(ctx, s.httpClient)
		require.Len(t, editorEntries, 2)
		assert.Equal(t, "Draft Thoughts", editorEntries[0].Title)
		assert.Equal(t, blog.StatusDraft, editorEntries[0].Status)
		assert.Equal(t, "Published Thoughts", editorEntries[1].Title)

		// anonymous reader sees only the published one
		readerEntries := s.getAllEntries(ctx, anonymousClient)
		require.Len(t, readerEntries, 1)
		assert.Equal(t, publishedID, readerEntries[0].ID)

		// a draft looks like a missing entry to an anonymous reader
		req, err := http.NewRequestWithContext(
			ctx, "GET", fmt.Sprintf("%s/blog/post/%s", serverEndpoint, draftID), nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		resp, err := anonymousClient.Do(req)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		// update the draft to published
		updateJson, err := json.Marshal(blog.Entry{
			ID:      draftID,
			Title:   "Draft Thoughts",
			Content: "these thoughts are done cooking",
			Author:  "ana",
			Status:  blog.StatusPublished,
		})
		require.NoError(t, err)
		req, err = http.NewRequestWithContext(
			ctx, "POST", serverEndpoint+"/blog/update", bytes.NewReader(updateJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")
		resp, err = s.httpClient.Do(req)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		readerEntries = s.getAllEntries(ctx, anonymousClient)
		require.Len(t, readerEntries, 2)

		// delete both
		resp, err = s.deleteEntryRequest(ctx, publishedID)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = s.deleteEntryRequest(ctx, draftID)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// deleting an already deleted entry is reported
		resp, err = s.deleteEntryRequest(ctx, draftID)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		s.doLogout(ctx)
	})

	s.T().Run("mutations blocked again after logout", func(t *testing.T) {
		entryJson, err := json.Marshal(blog.Entry{
			Title:   "After Hours",
			Content: "the session is gone, this should bounce",
			Author:  "ana",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(
			ctx,
			"POST", serverEndpoint+"/blog/new",
			bytes.NewReader(entryJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
