package mission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const divisionPage = `<html><body>
<div class="header"><p>Navigation</p></div>
<div class="clearfix text-formatted field field-org-msn-statement">
  <h2>Mission</h2>
  <p>The Division of   Environmental
     Biology supports <a href="#">research</a> worldwide.</p>
  <ul><li>Ecology</li><li></li><li>Evolution</li></ul>
</div>
</body></html>`

func ptr(s string) *string { return &s }

func TestFetchMission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/BIO/DEB":
			w.Write([]byte(divisionPage))
		case "/BIO/NONE":
			w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
		case "/BIO/BLANK":
			w.Write([]byte(`<div class="clearfix text-formatted field field-org-msn-statement"><h2>Mission</h2></div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	repo := NewMissionRepositoryWithClient(srv.Client())
	ctx := context.Background()

	text, found, err := repo.FetchMission(ctx, srv.URL+"/BIO/DEB")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "The Division of Environmental Biology supports research worldwide. Ecology Evolution", text)

	text, found, err = repo.FetchMission(ctx, srv.URL+"/BIO/NONE")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)

	text, found, err = repo.FetchMission(ctx, srv.URL+"/BIO/BLANK")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, text)

	_, _, err = repo.FetchMission(ctx, srv.URL+"/BIO/GONE")
	assert.Error(t, err)
}

func TestLoadDivisionURLs(t *testing.T) {
	repo := NewMissionRepository()
	dir := t.TempDir()

	_, err := repo.LoadDivisionURLs(dir)
	assert.ErrorIs(t, err, types.ErrMissingDivisionURLs)

	content := "https://www.nsf.gov/BIO/DEB\n\n  https://www.nsf.gov/OD/OIA  \n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "division_urls.txt"), []byte(content), 0o644))

	urls, err := repo.LoadDivisionURLs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.nsf.gov/BIO/DEB", "https://www.nsf.gov/OD/OIA"}, urls)
}

func TestDivisionMapFormats(t *testing.T) {
	repo := NewMissionRepository()
	dir := t.TempDir()

	plain := `{"Division of Environmental Biology": "DEB", "Office of Integrative Activities": {"abbr": "OIA", "mission": "Integrate."}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "division_map.json"), []byte(plain), 0o644))

	divisions, err := repo.LoadDivisionMap(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]entity.DivisionInfo{
		"Division of Environmental Biology": {Abbr: "DEB"},
		"Office of Integrative Activities":  {Abbr: "OIA", Mission: ptr("Integrate.")},
	}, divisions)

	divisions["Division of Environmental Biology"] = entity.DivisionInfo{Abbr: "DEB", Mission: ptr("")}
	divisions["Research & Development"] = entity.DivisionInfo{Abbr: "R&D"}
	path, err := repo.SaveDivisionMap(divisions, dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"abbr": "DEB",
    "mission": ""`)
	assert.Contains(t, string(data), `"Research & Development": {
    "abbr": "R&D"
  }`)

	reloaded, err := repo.LoadDivisionMap(dir)
	require.NoError(t, err)
	assert.Equal(t, divisions, reloaded)
}

func TestLoadDivisionMap_Invalid(t *testing.T) {
	repo := NewMissionRepository()
	dir := t.TempDir()

	_, err := repo.LoadDivisionMap(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "division_map.json"), []byte(`{"X": 3}`), 0o644))
	_, err = repo.LoadDivisionMap(dir)
	assert.Error(t, err)
}
